package strategy

import (
	"TradingEnv/internal/environ"
	"TradingEnv/internal/services/factors"
	"fmt"
	"math/rand"
)

// New builds a policy by name. rng is only used by the random policy and
// must be non-nil for it. The momentum and rsi policies read ret_1 and
// rsi_14 from observations produced by the given encoding.
func New(name string, rng *rand.Rand, encoding environ.Encoding) (Policy, error) {
	switch encoding {
	case environ.EncodingFlat, environ.EncodingWindowed, "":
	default:
		return nil, fmt.Errorf("policy %q: unknown encoding %q", name, encoding)
	}

	switch name {
	case PolicyHold:
		return HoldPolicy{}, nil
	case PolicyEmpty:
		return EmptyPolicy{}, nil
	case PolicyRandom:
		if rng == nil {
			return nil, fmt.Errorf("random policy needs a random source")
		}
		return NewRandomPolicy(rng), nil
	case PolicyMomentum:
		return NewMomentumPolicy(factors.Index("ret_1"), factors.Count), nil
	case PolicyRSI:
		return NewRSIPolicy(factors.Index("rsi_14"), factors.Count), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}
