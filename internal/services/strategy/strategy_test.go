package strategy

import (
	"errors"
	"math/rand"
	"testing"

	"TradingEnv/internal/environ"
	"TradingEnv/internal/services/factors"
)

func TestBaselinePolicies(t *testing.T) {
	obs := environ.Observation{Shape: []int{2}, Data: []float32{1, 2}}
	for _, info := range []environ.Info{{HavePosition: 0}, {HavePosition: 1}} {
		if got := (HoldPolicy{}).Decide(obs, info); got != environ.ActionHold {
			t.Errorf("hold policy chose %v", got)
		}
		if got := (EmptyPolicy{}).Decide(obs, info); got != environ.ActionEmpty {
			t.Errorf("empty policy chose %v", got)
		}
	}
}

func TestRandomPolicyCoversBothActions(t *testing.T) {
	p := NewRandomPolicy(rand.New(rand.NewSource(3)))
	seen := map[environ.Action]int{}
	for i := 0; i < 200; i++ {
		a := p.Decide(environ.Observation{}, environ.Info{})
		if !a.Valid() {
			t.Fatalf("invalid action %v", a)
		}
		seen[a]++
	}
	if seen[environ.ActionHold] == 0 || seen[environ.ActionEmpty] == 0 {
		t.Errorf("expected both actions, got %v", seen)
	}
}

func TestMomentumPolicy(t *testing.T) {
	tests := []struct {
		name string
		obs  environ.Observation
		info environ.Info
		want environ.Action
	}{
		{
			name: "flat layout rising",
			// two bars, three factors; latest bar is the last three values
			obs:  environ.Observation{Shape: []int{6}, Data: []float32{-1, 0, 0, 0.5, 0, 0}},
			want: environ.ActionHold,
		},
		{
			name: "flat layout falling",
			obs:  environ.Observation{Shape: []int{6}, Data: []float32{1, 0, 0, -0.5, 0, 0}},
			want: environ.ActionEmpty,
		},
		{
			name: "windowed layout rising",
			// rows: factor 0..2 then position rows; columns: bars
			obs:  environ.Observation{Shape: []int{5, 2}, Data: []float32{-1, 0.2, 0, 0, 0, 0, 0, 0, 0, 0}},
			want: environ.ActionHold,
		},
		{
			name: "windowed layout falling",
			obs:  environ.Observation{Shape: []int{5, 2}, Data: []float32{1, -0.2, 0, 0, 0, 0, 0, 0, 0, 0}},
			want: environ.ActionEmpty,
		},
		{
			name: "unreadable keeps position",
			obs:  environ.Observation{Shape: []int{1}, Data: []float32{1}},
			info: environ.Info{HavePosition: 1},
			want: environ.ActionHold,
		},
		{
			name: "unreadable stays flat",
			obs:  environ.Observation{Shape: []int{1}, Data: []float32{1}},
			want: environ.ActionEmpty,
		},
	}

	p := NewMomentumPolicy(0, 3)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Decide(tt.obs, tt.info); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRSIPolicy(t *testing.T) {
	windowed := func(rsi float32) environ.Observation {
		// one factor row, two bars, then the position rows
		return environ.Observation{Shape: []int{3, 2}, Data: []float32{0.5, rsi, 0, 0, 0, 0}}
	}

	tests := []struct {
		name string
		obs  environ.Observation
		info environ.Info
		want environ.Action
	}{
		{"oversold enters", windowed(0.25), environ.Info{}, environ.ActionHold},
		{"oversold stays long", windowed(0.20), environ.Info{HavePosition: 1}, environ.ActionHold},
		{"overbought exits", windowed(0.75), environ.Info{HavePosition: 1}, environ.ActionEmpty},
		{"neutral keeps long", windowed(0.50), environ.Info{HavePosition: 1}, environ.ActionHold},
		{"neutral keeps flat", windowed(0.50), environ.Info{}, environ.ActionEmpty},
		{"warm-up is no signal", windowed(0), environ.Info{}, environ.ActionEmpty},
		{
			name: "flat layout oversold",
			obs:  environ.Observation{Shape: []int{4}, Data: []float32{0.9, 1, 0.1, 1}},
			want: environ.ActionHold,
		},
	}

	p := NewRSIPolicy(0, 2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Decide(tt.obs, tt.info); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, name := range []string{PolicyHold, PolicyEmpty, PolicyRandom, PolicyMomentum, PolicyRSI} {
		p, err := New(name, rng, environ.EncodingWindowed)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, p.Name())
		}
	}

	if _, err := New("martingale", rng, environ.EncodingFlat); !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("expected ErrUnknownPolicy, got %v", err)
	}
	if _, err := New(PolicyRandom, nil, environ.EncodingFlat); err == nil {
		t.Error("expected an error for random policy without a source")
	}
	if _, err := New(PolicyHold, rng, "sparse"); err == nil {
		t.Error("expected an error for an unknown encoding")
	}
}

func TestMomentumReadsRealObservation(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 105}
	rows := make([][]float64, len(closes))
	for i := range rows {
		rows[i] = make([]float64, factors.Count)
		if i > 0 {
			rows[i][factors.Index("ret_1")] = closes[i]/closes[i-1] - 1
		}
	}
	series, err := environ.NewSeries(closes, rows, factors.Names[:])
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}

	for _, enc := range []environ.Encoding{environ.EncodingFlat, environ.EncodingWindowed} {
		env, err := environ.NewEnv(series, environ.EnvConfig{BarsCount: 2, Encoding: enc}, nil)
		if err != nil {
			t.Fatalf("NewEnv(%s): %v", enc, err)
		}
		obs, err := env.Reset()
		if err != nil {
			t.Fatalf("Reset(%s): %v", enc, err)
		}
		p, err := New(PolicyMomentum, nil, enc)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if got := p.Decide(obs, environ.Info{}); got != environ.ActionHold {
			t.Errorf("%s: expected hold in an uptrend, got %v", enc, got)
		}
	}
}
