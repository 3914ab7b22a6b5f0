package environ

import (
	"fmt"
	"math"
)

// Series is an immutable run of bars: one close price per bar and an aligned
// row of factor values. It is safe to share between any number of States.
type Series struct {
	closes  []float64
	factors [][]float64
	names   []string
}

// NewSeries copies closes, factor rows and factor names into a Series. Every
// row must have one value per name and there must be one row per close.
func NewSeries(closes []float64, factors [][]float64, names []string) (*Series, error) {
	if len(closes) == 0 {
		return nil, fmt.Errorf("%w: no bars", ErrInvalidSeries)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no factors", ErrInvalidSeries)
	}
	if len(factors) != len(closes) {
		return nil, fmt.Errorf("%w: %d factor rows for %d bars", ErrInvalidSeries, len(factors), len(closes))
	}

	s := &Series{
		closes:  make([]float64, len(closes)),
		factors: make([][]float64, len(factors)),
		names:   append([]string(nil), names...),
	}
	for i, c := range closes {
		if !(c > 0) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: close %v at bar %d", ErrInvalidSeries, c, i)
		}
		s.closes[i] = c
	}
	for i, row := range factors {
		if len(row) != len(names) {
			return nil, fmt.Errorf("%w: bar %d has %d factors, want %d", ErrInvalidSeries, i, len(row), len(names))
		}
		s.factors[i] = append([]float64(nil), row...)
	}
	return s, nil
}

// Len is the number of bars.
func (s *Series) Len() int { return len(s.closes) }

// FactorCount is the number of factor columns.
func (s *Series) FactorCount() int { return len(s.names) }

func (s *Series) FactorNames() []string {
	return append([]string(nil), s.names...)
}

// Close returns the close price of the bar at offset.
func (s *Series) Close(offset int) (float64, error) {
	if offset < 0 || offset >= len(s.closes) {
		return 0, fmt.Errorf("%w: close at %d, series has %d bars", ErrOutOfRange, offset, len(s.closes))
	}
	return s.closes[offset], nil
}

// Factor returns factor f of the bar at offset.
func (s *Series) Factor(offset, f int) (float64, error) {
	if offset < 0 || offset >= len(s.factors) {
		return 0, fmt.Errorf("%w: factors at %d, series has %d bars", ErrOutOfRange, offset, len(s.factors))
	}
	if f < 0 || f >= len(s.names) {
		return 0, fmt.Errorf("%w: factor %d of %d", ErrOutOfRange, f, len(s.names))
	}
	return s.factors[offset][f], nil
}
