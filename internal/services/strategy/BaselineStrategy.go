package strategy

import (
	"TradingEnv/internal/environ"
	"math/rand"
)

// HoldPolicy enters on the first step and never leaves.
type HoldPolicy struct{}

func (HoldPolicy) Name() string { return PolicyHold }

func (HoldPolicy) Decide(environ.Observation, environ.Info) environ.Action {
	return environ.ActionHold
}

// EmptyPolicy never takes a position.
type EmptyPolicy struct{}

func (EmptyPolicy) Name() string { return PolicyEmpty }

func (EmptyPolicy) Decide(environ.Observation, environ.Info) environ.Action {
	return environ.ActionEmpty
}

// RandomPolicy samples actions uniformly. Not safe for concurrent use.
type RandomPolicy struct {
	rng *rand.Rand
}

// NewRandomPolicy creates a new instance of RandomPolicy
func NewRandomPolicy(rng *rand.Rand) *RandomPolicy {
	return &RandomPolicy{rng: rng}
}

func (p *RandomPolicy) Name() string { return PolicyRandom }

func (p *RandomPolicy) Decide(environ.Observation, environ.Info) environ.Action {
	return environ.Action(p.rng.Intn(environ.ActionCount))
}
