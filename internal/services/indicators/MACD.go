package indicators

type MACDService struct {
	ema *EMAService
}

type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

func NewMACDService() *MACDService {
	return &MACDService{
		ema: NewEMAService(),
	}
}

// Calculate returns MACD line, signal line, and histogram
// Default periods: fast=12, slow=26, signal=9
func (s *MACDService) Calculate(prices []float64, fastPeriod, slowPeriod, signalPeriod int) *MACDResult {
	if !s.ValidatePeriods(prices, fastPeriod, slowPeriod, signalPeriod) {
		return nil
	}

	fastEMA := s.ema.Calculate(prices, fastPeriod)
	slowEMA := s.ema.Calculate(prices, slowPeriod)

	macdLine := make([]float64, len(prices))
	for i := slowPeriod - 1; i < len(prices); i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	// signal is seeded from the first defined MACD values only
	signalLine := make([]float64, len(prices))
	if seeded := s.ema.Calculate(macdLine[slowPeriod-1:], signalPeriod); seeded != nil {
		copy(signalLine[slowPeriod-1:], seeded)
	}

	histogram := make([]float64, len(prices))
	for i := slowPeriod + signalPeriod - 2; i < len(prices); i++ {
		histogram[i] = macdLine[i] - signalLine[i]
	}

	return &MACDResult{
		MACD:      macdLine,
		Signal:    signalLine,
		Histogram: histogram,
	}
}

func (s *MACDService) ValidatePeriods(prices []float64, fastPeriod, slowPeriod, signalPeriod int) bool {
	minLength := slowPeriod + signalPeriod - 1
	return len(prices) >= minLength &&
		fastPeriod > 0 &&
		slowPeriod > fastPeriod &&
		signalPeriod > 0
}
