package indicators

import "math"

type BBandsService struct{}

type BBandsResult struct {
	Upper    []float64
	Middle   []float64
	Lower    []float64
	Width    []float64 // Volatility indicator
	PercentB []float64 // Position of price inside the band, 0 at lower, 1 at upper
}

func NewBBandsService() *BBandsService {
	return &BBandsService{}
}

func (s *BBandsService) Calculate(prices []float64, period int, deviations float64) *BBandsResult {
	if !s.ValidatePeriod(prices, period) {
		return nil
	}

	upper := make([]float64, len(prices))
	middle := make([]float64, len(prices))
	lower := make([]float64, len(prices))
	width := make([]float64, len(prices))
	percentB := make([]float64, len(prices))

	for i := period - 1; i < len(prices); i++ {
		subset := prices[i-period+1 : i+1]

		sum := 0.0
		for _, price := range subset {
			sum += price
		}
		sma := sum / float64(period)
		middle[i] = sma

		squareSum := 0.0
		for _, price := range subset {
			diff := price - sma
			squareSum += diff * diff
		}
		stdDev := math.Sqrt(squareSum / float64(period))

		upper[i] = sma + (deviations * stdDev)
		lower[i] = sma - (deviations * stdDev)

		if middle[i] != 0 {
			width[i] = (upper[i] - lower[i]) / middle[i]
		}
		if upper[i] > lower[i] {
			percentB[i] = (prices[i] - lower[i]) / (upper[i] - lower[i])
		} else {
			percentB[i] = 0.5
		}
	}

	return &BBandsResult{
		Upper:    upper,
		Middle:   middle,
		Lower:    lower,
		Width:    width,
		PercentB: percentB,
	}
}

// ValidatePeriod checks if we have enough data
func (s *BBandsService) ValidatePeriod(prices []float64, period int) bool {
	return len(prices) >= period && period > 0
}
