package environ

import "fmt"

// FlatFactorCount is the factor width the flat layout is built for.
const FlatFactorCount = 19

// Encoder turns a State into an observation. Both layouts read the window of
// bars [offset-bars_count, offset).
type Encoder interface {
	// Shape is the observation shape for a window of barsCount bars.
	Shape(barsCount int) []int
	// Check rejects a series whose factor width does not fit the layout.
	Check(series *Series) error
	Encode(s *State) (Observation, error)
}

// FlatEncoder concatenates every factor of every bar in the window, oldest
// bar first. It ignores the position.
type FlatEncoder struct{}

func (FlatEncoder) Shape(barsCount int) []int {
	return []int{FlatFactorCount * barsCount}
}

func (FlatEncoder) Check(series *Series) error {
	if series.FactorCount() != FlatFactorCount {
		return fmt.Errorf("%w: flat layout needs %d factors, series has %d", ErrFactorWidth, FlatFactorCount, series.FactorCount())
	}
	return nil
}

func (e FlatEncoder) Encode(s *State) (Observation, error) {
	bars := s.cfg.BarsCount
	obs := newObservation(e.Shape(bars))
	factorCount := s.series.FactorCount()

	idx := 0
	for barIdx := -bars; barIdx < 0; barIdx++ {
		for f := 0; f < factorCount; f++ {
			v, err := s.series.Factor(s.offset+barIdx, f)
			if err != nil {
				return Observation{}, err
			}
			obs.Data[idx] = float32(v)
			idx++
		}
	}
	return obs, nil
}

// WindowedEncoder lays the window out as one row per factor plus two rows
// for the position flag and the unrealized return.
type WindowedEncoder struct {
	factorCount int
}

func NewWindowedEncoder(factorCount int) (*WindowedEncoder, error) {
	if factorCount <= 0 {
		return nil, fmt.Errorf("%w: factor count %d must be positive", ErrInvalidConfiguration, factorCount)
	}
	return &WindowedEncoder{factorCount: factorCount}, nil
}

func (e *WindowedEncoder) Shape(barsCount int) []int {
	return []int{e.factorCount + 2, barsCount}
}

func (e *WindowedEncoder) Check(series *Series) error {
	if series.FactorCount() != e.factorCount {
		return fmt.Errorf("%w: windowed layout built for %d factors, series has %d", ErrFactorWidth, e.factorCount, series.FactorCount())
	}
	return nil
}

func (e *WindowedEncoder) Encode(s *State) (Observation, error) {
	bars := s.cfg.BarsCount
	obs := newObservation(e.Shape(bars))
	start := s.offset - bars

	for f := 0; f < e.factorCount; f++ {
		for col := 0; col < bars; col++ {
			v, err := s.series.Factor(start+col, f)
			if err != nil {
				return Observation{}, err
			}
			obs.set(f, col, float32(v))
		}
	}

	if s.havePosition {
		for col := 0; col < bars; col++ {
			obs.set(e.factorCount, col, 1.0)
		}
		closePrice, err := s.close()
		if err != nil {
			return Observation{}, err
		}
		// only the newest column carries the unrealized return
		obs.set(e.factorCount+1, bars-1, float32((closePrice-s.openPrice)/s.openPrice))
	}
	return obs, nil
}
