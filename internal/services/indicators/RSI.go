package indicators

import "math"

type RSIService struct {
	ema *EMAService
}

type RSIResult struct {
	RSI       []float64 // Main RSI line
	Signal    []float64 // Smoothed RSI line
	Histogram []float64 // Difference between RSI and signal
}

func NewRSIService() *RSIService {
	return &RSIService{
		ema: NewEMAService(),
	}
}

// Calculate returns RSI in [0, 100]. Values before index period are zero.
func (s *RSIService) Calculate(prices []float64, period int, smoothPeriod int) *RSIResult {
	if period <= 0 || smoothPeriod <= 0 || len(prices) < period+1 {
		return nil
	}

	rsi := make([]float64, len(prices))
	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))

	for i := 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = math.Abs(change)
		}
	}

	avgGain := s.ema.Calculate(gains, period)
	avgLoss := s.ema.Calculate(losses, period)

	for i := period; i < len(prices); i++ {
		if avgLoss[i] == 0 {
			rsi[i] = 100
		} else {
			rs := avgGain[i] / avgLoss[i]
			rsi[i] = 100 - (100 / (1 + rs))
		}
	}

	signal := make([]float64, len(prices))
	if smoothed := s.ema.Calculate(rsi[period:], smoothPeriod); smoothed != nil {
		copy(signal[period:], smoothed)
	}

	histogram := make([]float64, len(prices))
	for i := period + smoothPeriod - 1; i < len(prices); i++ {
		histogram[i] = rsi[i] - signal[i]
	}

	return &RSIResult{
		RSI:       rsi,
		Signal:    signal,
		Histogram: histogram,
	}
}

// IsOverbought / IsOversold use the classic 70/30 levels
func IsOverbought(rsi float64) bool { return rsi >= 70 }
func IsOversold(rsi float64) bool   { return rsi <= 30 }
