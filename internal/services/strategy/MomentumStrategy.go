package strategy

import (
	"TradingEnv/internal/environ"
)

// MomentumPolicy stays long while the latest value of a return factor is
// positive and goes flat otherwise.
type MomentumPolicy struct {
	factorIndex int
	factorCount int
}

// NewMomentumPolicy creates a new instance of MomentumPolicy. factorCount is
// the number of factors per bar, used to locate the latest bar in flat
// observations.
func NewMomentumPolicy(factorIndex, factorCount int) *MomentumPolicy {
	return &MomentumPolicy{
		factorIndex: factorIndex,
		factorCount: factorCount,
	}
}

func (p *MomentumPolicy) Name() string { return PolicyMomentum }

func (p *MomentumPolicy) Decide(obs environ.Observation, info environ.Info) environ.Action {
	value, ok := latestFactor(obs, p.factorIndex, p.factorCount)
	if !ok {
		return keep(info)
	}
	if value > 0 {
		return environ.ActionHold
	}
	return environ.ActionEmpty
}

// latestFactor reads a factor for the most recent bar in the window. Flat
// observations are bar-major; windowed ones keep factors in rows and bars in
// columns.
func latestFactor(obs environ.Observation, factorIndex, factorCount int) (float32, bool) {
	switch len(obs.Shape) {
	case 1:
		if factorIndex < 0 || factorIndex >= factorCount || obs.Len() < factorCount {
			return 0, false
		}
		return obs.Data[obs.Len()-factorCount+factorIndex], true
	case 2:
		rows, cols := obs.Shape[0], obs.Shape[1]
		if factorIndex < 0 || factorIndex >= rows || cols == 0 {
			return 0, false
		}
		return obs.At(factorIndex, cols-1), true
	}
	return 0, false
}

// keep repeats the current position.
func keep(info environ.Info) environ.Action {
	if info.HavePosition == 1 {
		return environ.ActionHold
	}
	return environ.ActionEmpty
}
