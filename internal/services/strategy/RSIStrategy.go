package strategy

import (
	"TradingEnv/internal/environ"
	"TradingEnv/internal/services/indicators"
)

// RSIPolicy buys oversold bars and exits overbought ones, holding its
// position in between. The factor is RSI scaled to [0, 1]; 0 is the
// warm-up fill and is treated as no signal.
type RSIPolicy struct {
	factorIndex int
	factorCount int
}

// NewRSIPolicy creates a new instance of RSIPolicy
func NewRSIPolicy(factorIndex, factorCount int) *RSIPolicy {
	return &RSIPolicy{
		factorIndex: factorIndex,
		factorCount: factorCount,
	}
}

func (p *RSIPolicy) Name() string { return PolicyRSI }

func (p *RSIPolicy) Decide(obs environ.Observation, info environ.Info) environ.Action {
	value, ok := latestFactor(obs, p.factorIndex, p.factorCount)
	if !ok || value <= 0 {
		return keep(info)
	}

	rsi := float64(value) * 100
	switch {
	case indicators.IsOversold(rsi):
		return environ.ActionHold
	case indicators.IsOverbought(rsi):
		return environ.ActionEmpty
	}
	return keep(info)
}
