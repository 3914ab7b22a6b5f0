package indicators

// EMAService provides Exponential Moving Average calculations
type EMAService struct{}

func NewEMAService() *EMAService {
	return &EMAService{}
}

// Calculate computes EMA for the entire price series. The first period-1
// values are left at zero; the seed is the SMA of the first period prices.
func (s *EMAService) Calculate(prices []float64, period int) []float64 {
	if !s.validateInputs(prices, period) {
		return nil
	}

	ema := make([]float64, len(prices))
	multiplier := s.getMultiplier(period)

	ema[period-1] = s.calculateInitialSMA(prices, period)
	for i := period; i < len(prices); i++ {
		ema[i] = s.calculatePoint(prices[i], ema[i-1], multiplier)
	}

	return ema
}

func (s *EMAService) validateInputs(prices []float64, period int) bool {
	if len(prices) == 0 || period <= 0 || len(prices) < period {
		return false
	}
	return true
}

func (s *EMAService) getMultiplier(period int) float64 {
	return 2.0 / float64(period+1)
}

func (s *EMAService) calculateInitialSMA(prices []float64, period int) float64 {
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	return sum / float64(period)
}

func (s *EMAService) calculatePoint(price, prevEMA, multiplier float64) float64 {
	return (price-prevEMA)*multiplier + prevEMA
}
