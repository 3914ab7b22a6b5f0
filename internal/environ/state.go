package environ

import (
	"fmt"
	"math"
)

// EmptyPenaltyLimit bounds the magnitude of the flat-position shaping term.
const EmptyPenaltyLimit = 3.5

// StateConfig is fixed for the life of a State.
type StateConfig struct {
	BarsCount     int     // encoding window length
	Commission    float64 // fractional rate, e.g. 0.00025
	ResetOnSell   bool    // end the episode right after closing a position
	RewardOnEmpty bool    // apply the shaping term while flat
}

// Info accompanies every step.
type Info struct {
	HavePosition int `json:"have_position" yaml:"have_position"`
}

// State is one trader's episode over a Series. A State is reused across
// episodes; Reset overwrites everything a previous episode left behind.
// It is not safe for concurrent use.
type State struct {
	cfg     StateConfig
	encoder Encoder

	series       *Series
	offset       int
	havePosition bool
	openPrice    float64
}

// NewState validates cfg and binds the observation layout.
func NewState(cfg StateConfig, encoder Encoder) (*State, error) {
	if cfg.BarsCount <= 0 {
		return nil, fmt.Errorf("%w: bars count %d must be positive", ErrInvalidConfiguration, cfg.BarsCount)
	}
	if !(cfg.Commission >= 0) || math.IsInf(cfg.Commission, 0) {
		return nil, fmt.Errorf("%w: commission %v must be a non-negative number", ErrInvalidConfiguration, cfg.Commission)
	}
	if encoder == nil {
		return nil, fmt.Errorf("%w: no encoder", ErrInvalidConfiguration)
	}
	return &State{cfg: cfg, encoder: encoder}, nil
}

// Reset starts a new episode at offset. The offset must leave bars_count-1
// bars of history behind it. The upper bound is not checked here; Step
// reports ErrOutOfRange if the series runs out.
//
// Reset accepts offset == bars_count-1, but the observation window covers
// [offset-bars_count, offset), so Encode at that offset returns
// ErrOutOfRange until one Step has been taken. The window never wraps to
// the end of the series. Env.Reset always starts at bars_count or later.
func (s *State) Reset(series *Series, offset int) error {
	if series == nil {
		return fmt.Errorf("%w: nil series", ErrInvalidSeries)
	}
	if offset < s.cfg.BarsCount-1 {
		return fmt.Errorf("%w: offset %d needs at least %d bars of history", ErrInvalidOffset, offset, s.cfg.BarsCount-1)
	}
	if err := s.encoder.Check(series); err != nil {
		return err
	}
	s.series = series
	s.offset = offset
	s.havePosition = false
	s.openPrice = 0
	return nil
}

// Step applies action, advances one bar and returns the reward, whether the
// episode is over, and the resulting position.
func (s *State) Step(action Action) (float64, bool, Info, error) {
	if s.series == nil {
		return 0, false, Info{}, ErrNotReset
	}
	if !action.Valid() {
		return 0, false, Info{}, fmt.Errorf("%w: %v", ErrInvalidAction, action)
	}
	if s.offset+1 >= s.series.Len() {
		return 0, false, Info{}, fmt.Errorf("%w: cannot step past bar %d of %d", ErrOutOfRange, s.offset, s.series.Len())
	}

	closePrice, err := s.close()
	if err != nil {
		return 0, false, Info{}, err
	}

	reward := 0.0
	done := false
	if action == ActionHold && !s.havePosition {
		reward -= s.cfg.Commission * 100
		s.havePosition = true
		s.openPrice = closePrice
	}
	if action == ActionEmpty && s.havePosition {
		reward -= s.cfg.Commission * 100
		done = done || s.cfg.ResetOnSell
		s.havePosition = false
		s.openPrice = 0
	}

	s.offset++
	nextClose, err := s.close()
	if err != nil {
		return 0, false, Info{}, err
	}
	change := 100 * (nextClose - closePrice) / closePrice
	if s.havePosition {
		reward += change
	}
	if s.cfg.RewardOnEmpty && !s.havePosition {
		reward -= EmptyPenalty(change)
	}
	done = done || s.offset >= s.series.Len()-1

	return reward, done, s.info(), nil
}

// EmptyPenalty is the shaping term subtracted from the reward while flat:
// the cubed percentage change clipped to [-EmptyPenaltyLimit, 0].
func EmptyPenalty(pctChange float64) float64 {
	return math.Max(-EmptyPenaltyLimit, math.Min(0, math.Pow(pctChange, 3)))
}

// Encode renders the current observation. It never mutates the state.
// It returns ErrOutOfRange when the window [offset-bars_count, offset) would
// start before bar 0.
func (s *State) Encode() (Observation, error) {
	if s.series == nil {
		return Observation{}, ErrNotReset
	}
	return s.encoder.Encode(s)
}

// Shape is the fixed observation shape for this state's configuration.
func (s *State) Shape() []int {
	return s.encoder.Shape(s.cfg.BarsCount)
}

func (s *State) Config() StateConfig { return s.cfg }
func (s *State) Series() *Series     { return s.series }
func (s *State) Offset() int         { return s.offset }
func (s *State) HavePosition() bool  { return s.havePosition }

// OpenPrice is the entry close of the current position, 0 while flat.
func (s *State) OpenPrice() float64 { return s.openPrice }

// CurrentClose is the close price at the current offset.
func (s *State) CurrentClose() (float64, error) {
	if s.series == nil {
		return 0, ErrNotReset
	}
	return s.close()
}

func (s *State) close() (float64, error) {
	return s.series.Close(s.offset)
}

func (s *State) info() Info {
	if s.havePosition {
		return Info{HavePosition: 1}
	}
	return Info{HavePosition: 0}
}
