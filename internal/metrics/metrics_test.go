package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	r.ObserveStep(1)
	r.ObserveStep(0)
	r.ObserveTrade(SideEntry)
	r.ObserveTrade(SideExit)
	r.ObserveTrade(SideExit)
	r.ObserveCommission(0.05)
	r.ObserveEpisode("hold", 3.5)

	families := gather(t, reg)

	if v := families["tradingenv_steps_total"].GetMetric()[0].GetCounter().GetValue(); v != 2 {
		t.Errorf("steps = %v, want 2", v)
	}
	if v := families["tradingenv_position"].GetMetric()[0].GetGauge().GetValue(); v != 0 {
		t.Errorf("position = %v, want 0", v)
	}
	if v := families["tradingenv_commission_points_total"].GetMetric()[0].GetCounter().GetValue(); v != 0.05 {
		t.Errorf("commission = %v, want 0.05", v)
	}

	trades := map[string]float64{}
	for _, m := range families["tradingenv_trades_total"].GetMetric() {
		trades[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	if trades[SideEntry] != 1 || trades[SideExit] != 2 {
		t.Errorf("unexpected trades %v", trades)
	}

	episodes := families["tradingenv_episodes_total"].GetMetric()
	if len(episodes) != 1 || episodes[0].GetCounter().GetValue() != 1 {
		t.Errorf("unexpected episodes %v", episodes)
	}
	h := families["tradingenv_episode_reward"].GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 || h.GetSampleSum() != 3.5 {
		t.Errorf("histogram count=%d sum=%v", h.GetSampleCount(), h.GetSampleSum())
	}
}

func TestRecorderDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if _, err := NewRecorder(reg); err == nil {
		t.Error("expected an error registering twice")
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveStep(1)
	r.ObserveTrade(SideEntry)
	r.ObserveCommission(1)
	r.ObserveEpisode("hold", 1)
}
