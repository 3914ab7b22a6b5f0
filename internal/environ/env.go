package environ

import (
	"fmt"
	"math/rand"
)

// Encoding selects the observation layout.
type Encoding string

const (
	EncodingFlat     Encoding = "flat"
	EncodingWindowed Encoding = "windowed"
)

// EnvConfig configures the agent-facing environment.
type EnvConfig struct {
	BarsCount     int
	Commission    float64
	ResetOnSell   bool
	RewardOnEmpty bool
	RandomOffset  bool
	Encoding      Encoding
}

func DefaultEnvConfig() EnvConfig {
	return EnvConfig{
		BarsCount:     100,
		Commission:    0.00025,
		ResetOnSell:   true,
		RewardOnEmpty: false,
		RandomOffset:  true,
		Encoding:      EncodingWindowed,
	}
}

// Env exposes reset/step over one Series to a generic agent loop. It owns the
// starting offset policy; the State it drives never sees randomness.
type Env struct {
	cfg      EnvConfig
	series   *Series
	state    *State
	rng      *rand.Rand
	episodes int
}

// NewEnv builds the state and encoder for series. rng is required when
// RandomOffset is set.
func NewEnv(series *Series, cfg EnvConfig, rng *rand.Rand) (*Env, error) {
	if series == nil {
		return nil, fmt.Errorf("%w: nil series", ErrInvalidSeries)
	}

	var encoder Encoder
	switch cfg.Encoding {
	case EncodingFlat:
		encoder = FlatEncoder{}
	case EncodingWindowed, "":
		w, err := NewWindowedEncoder(series.FactorCount())
		if err != nil {
			return nil, err
		}
		encoder = w
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrInvalidConfiguration, cfg.Encoding)
	}
	if err := encoder.Check(series); err != nil {
		return nil, err
	}

	state, err := NewState(StateConfig{
		BarsCount:     cfg.BarsCount,
		Commission:    cfg.Commission,
		ResetOnSell:   cfg.ResetOnSell,
		RewardOnEmpty: cfg.RewardOnEmpty,
	}, encoder)
	if err != nil {
		return nil, err
	}

	if cfg.RandomOffset {
		if rng == nil {
			return nil, fmt.Errorf("%w: random offsets need a random source", ErrInvalidConfiguration)
		}
		if series.Len()-cfg.BarsCount*10 <= 0 {
			return nil, fmt.Errorf("%w: %d bars is too short for random offsets with a window of %d", ErrInvalidSeries, series.Len(), cfg.BarsCount)
		}
	} else if cfg.BarsCount+1 >= series.Len() {
		return nil, fmt.Errorf("%w: %d bars leaves no step after a window of %d", ErrInvalidSeries, series.Len(), cfg.BarsCount)
	}

	return &Env{
		cfg:    cfg,
		series: series,
		state:  state,
		rng:    rng,
	}, nil
}

// Reset starts a new episode and returns its first observation.
func (e *Env) Reset() (Observation, error) {
	bars := e.cfg.BarsCount
	offset := bars
	if e.cfg.RandomOffset {
		offset = e.rng.Intn(e.series.Len()-bars*10) + bars
	}
	if err := e.state.Reset(e.series, offset); err != nil {
		return Observation{}, err
	}
	e.episodes++
	return e.state.Encode()
}

// Step maps actionIdx to an Action, advances the state and encodes the
// result.
func (e *Env) Step(actionIdx int) (Observation, float64, bool, Info, error) {
	action, err := ActionFromIndex(actionIdx)
	if err != nil {
		return Observation{}, 0, false, Info{}, err
	}
	reward, done, info, err := e.state.Step(action)
	if err != nil {
		return Observation{}, 0, false, Info{}, err
	}
	obs, err := e.state.Encode()
	if err != nil {
		return Observation{}, 0, false, Info{}, err
	}
	return obs, reward, done, info, nil
}

func (e *Env) ActionCount() int        { return ActionCount }
func (e *Env) ObservationShape() []int { return e.state.Shape() }
func (e *Env) State() *State           { return e.state }
func (e *Env) Series() *Series         { return e.series }
func (e *Env) Config() EnvConfig       { return e.cfg }

// Episodes counts successful resets.
func (e *Env) Episodes() int { return e.episodes }
