package strategy

import (
	"TradingEnv/internal/environ"
	"errors"
)

// Policy names accepted by New.
const (
	PolicyHold     = "hold"
	PolicyEmpty    = "empty"
	PolicyRandom   = "random"
	PolicyMomentum = "momentum"
	PolicyRSI      = "rsi"
)

var ErrUnknownPolicy = errors.New("unknown policy")

// Policy picks the next action from the current observation.
type Policy interface {
	Name() string
	Decide(obs environ.Observation, info environ.Info) environ.Action
}
