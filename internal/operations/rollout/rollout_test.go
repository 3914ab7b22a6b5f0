package rollout

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"TradingEnv/internal/environ"
	"TradingEnv/internal/metrics"
	"TradingEnv/internal/models"
	"TradingEnv/internal/services/strategy"

	"github.com/prometheus/client_golang/prometheus"
)

// scripted replays a fixed action list, then holds.
type scripted struct {
	actions []environ.Action
	i       int
}

func (s *scripted) Name() string { return "scripted" }

func (s *scripted) Decide(environ.Observation, environ.Info) environ.Action {
	if s.i >= len(s.actions) {
		return environ.ActionHold
	}
	a := s.actions[s.i]
	s.i++
	return a
}

type memoryStore struct {
	episodes []*models.Episode
	trades   [][]models.Trade
	err      error
}

func (m *memoryStore) SaveEpisode(episode *models.Episode, trades []models.Trade) error {
	if m.err != nil {
		return m.err
	}
	m.episodes = append(m.episodes, episode)
	m.trades = append(m.trades, trades)
	return nil
}

func rampEnv(t *testing.T, n int, resetOnSell bool) *environ.Env {
	t.Helper()
	closes := make([]float64, n)
	rows := make([][]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
		rows[i] = []float64{float64(i)}
	}
	series, err := environ.NewSeries(closes, rows, []string{"bar"})
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	env, err := environ.NewEnv(series, environ.EnvConfig{
		BarsCount:   2,
		Commission:  0.001,
		ResetOnSell: resetOnSell,
		Encoding:    environ.EncodingWindowed,
	}, nil)
	if err != nil {
		t.Fatalf("NewEnv: %v", err)
	}
	return env
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRunHoldToEndOfSeries(t *testing.T) {
	env := rampEnv(t, 10, true)
	results, err := NewEngine(env, strategy.HoldPolicy{}, nil, nil, Config{Episodes: 1}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	ep := results.EpisodeResults[0]
	if ep.StartOffset != 2 || ep.EndOffset != 9 || ep.Steps != 7 {
		t.Errorf("unexpected offsets %d..%d over %d steps", ep.StartOffset, ep.EndOffset, ep.Steps)
	}
	want := -0.1
	for k := 2; k < 9; k++ {
		c0, c1 := 100+float64(k), 101+float64(k)
		want += 100 * (c1 - c0) / c0
	}
	if !almostEqual(ep.TotalReward, want) {
		t.Errorf("total reward = %v, want %v", ep.TotalReward, want)
	}
	if ep.Entries != 1 || ep.Exits != 0 || !ep.FinalPosition {
		t.Errorf("unexpected position tracking %+v", ep)
	}
	if ep.DoneReason != models.DoneReasonEndOfSeries {
		t.Errorf("done reason = %q", ep.DoneReason)
	}
	if !almostEqual(ep.Commission, 0.1) {
		t.Errorf("commission = %v, want 0.1", ep.Commission)
	}
	if len(ep.Trades) != 1 || !ep.Trades[0].Open {
		t.Fatalf("expected one open trade, got %+v", ep.Trades)
	}
	tr := ep.Trades[0]
	if tr.EntryPrice != 102 || tr.ExitPrice != 109 || !almostEqual(tr.Return, 100*7.0/102) {
		t.Errorf("unexpected trade %+v", tr)
	}
	if len(ep.RewardCurve) != ep.Steps {
		t.Errorf("reward curve has %d points for %d steps", len(ep.RewardCurve), ep.Steps)
	}
}

func TestRunStopsOnSell(t *testing.T) {
	env := rampEnv(t, 10, true)
	policy := &scripted{actions: []environ.Action{environ.ActionHold, environ.ActionHold, environ.ActionEmpty}}
	results, err := NewEngine(env, policy, nil, nil, Config{Episodes: 1}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	ep := results.EpisodeResults[0]
	if ep.Steps != 3 || ep.DoneReason != models.DoneReasonSold {
		t.Errorf("expected a sold episode after 3 steps, got %d steps (%s)", ep.Steps, ep.DoneReason)
	}
	if ep.Entries != 1 || ep.Exits != 1 || ep.FinalPosition {
		t.Errorf("unexpected position tracking %+v", ep)
	}
	if !almostEqual(ep.Commission, 0.2) {
		t.Errorf("commission = %v, want 0.2", ep.Commission)
	}
	if len(ep.Trades) != 1 || ep.Trades[0].Open {
		t.Fatalf("expected one closed trade, got %+v", ep.Trades)
	}
	tr := ep.Trades[0]
	if tr.EntryOffset != 2 || tr.ExitOffset != 4 || tr.EntryPrice != 102 || tr.ExitPrice != 104 {
		t.Errorf("unexpected trade %+v", tr)
	}
}

func TestRunMaxSteps(t *testing.T) {
	env := rampEnv(t, 20, true)
	results, err := NewEngine(env, strategy.HoldPolicy{}, nil, nil, Config{Episodes: 2, MaxSteps: 3}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, ep := range results.EpisodeResults {
		if ep.Steps != 3 || ep.DoneReason != models.DoneReasonMaxSteps {
			t.Errorf("expected 3 steps capped by max_steps, got %d (%s)", ep.Steps, ep.DoneReason)
		}
	}
	if results.MeanSteps != 3 {
		t.Errorf("mean steps = %v", results.MeanSteps)
	}
}

func TestRunPersistsEpisodes(t *testing.T) {
	env := rampEnv(t, 10, true)
	store := &memoryStore{}
	policy := &scripted{actions: []environ.Action{environ.ActionHold, environ.ActionEmpty}}
	cfg := Config{Episodes: 1, Symbol: "BTCUSDT", TimeFrame: models.PriceTimeFrame1h}
	results, err := NewEngine(env, policy, store, nil, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.episodes) != 1 {
		t.Fatalf("expected 1 stored episode, got %d", len(store.episodes))
	}
	stored := store.episodes[0]
	if stored.RunID != results.EpisodeResults[0].ID || stored.RunID == "" {
		t.Errorf("run id %q does not match %q", stored.RunID, results.EpisodeResults[0].ID)
	}
	if stored.Symbol != "BTCUSDT" || stored.Policy != "scripted" || stored.DoneReason != models.DoneReasonSold {
		t.Errorf("unexpected episode %+v", stored)
	}
	if len(store.trades[0]) != 1 || store.trades[0][0].Status != models.TradeStatusClosed {
		t.Errorf("unexpected trades %+v", store.trades[0])
	}

	boom := errors.New("db down")
	_, err = NewEngine(rampEnv(t, 10, true), strategy.HoldPolicy{}, &memoryStore{err: boom}, nil, cfg).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected store error, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(rampEnv(t, 10, true), strategy.HoldPolicy{}, nil, nil, Config{Episodes: 1}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunValidation(t *testing.T) {
	env := rampEnv(t, 10, true)
	ctx := context.Background()
	if _, err := NewEngine(env, strategy.HoldPolicy{}, nil, nil, Config{}).Run(ctx); err == nil {
		t.Error("expected an error for zero episodes")
	}
	if _, err := NewEngine(env, strategy.HoldPolicy{}, nil, nil, Config{Episodes: 1, MaxSteps: -1}).Run(ctx); err == nil {
		t.Error("expected an error for negative max steps")
	}
	if _, err := NewEngine(env, nil, nil, nil, Config{Episodes: 1}).Run(ctx); err == nil {
		t.Error("expected an error without a policy")
	}
}

func TestRunUpdatesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	engine := NewEngine(rampEnv(t, 10, true), strategy.HoldPolicy{}, nil, nil, Config{Episodes: 2})
	engine.SetMetrics(rec)
	if _, err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		switch f.GetName() {
		case "tradingenv_steps_total":
			if v := f.GetMetric()[0].GetCounter().GetValue(); v != 14 {
				t.Errorf("steps = %v, want 14", v)
			}
		case "tradingenv_episodes_total":
			if v := f.GetMetric()[0].GetCounter().GetValue(); v != 2 {
				t.Errorf("episodes = %v, want 2", v)
			}
		}
	}
}

func TestCalculateResults(t *testing.T) {
	e := NewEngine(nil, strategy.EmptyPolicy{}, nil, nil, Config{})
	results := e.calculateResults([]EpisodeResult{
		{TotalReward: 2, Steps: 4},
		{TotalReward: -1, Steps: 2},
		{TotalReward: 5, Steps: 6},
	})

	if !almostEqual(results.MeanReward, 2) || results.BestReward != 5 || results.WorstReward != -1 {
		t.Errorf("unexpected reward stats %+v", results)
	}
	if !almostEqual(results.WinRate, 2.0/3) || results.MeanSteps != 4 {
		t.Errorf("unexpected win rate %v or steps %v", results.WinRate, results.MeanSteps)
	}
	// sample std of {2, -1, 5} is 3
	if !almostEqual(results.SharpeRatio, 2.0/3) {
		t.Errorf("sharpe = %v, want %v", results.SharpeRatio, 2.0/3)
	}

	if calculateSharpeRatio([]float64{1}) != 0 || calculateSharpeRatio([]float64{1, 1}) != 0 {
		t.Error("expected zero sharpe for degenerate samples")
	}
}

func TestReportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	in := &Results{
		Policy:     "hold",
		Episodes:   1,
		MeanReward: 1.5,
		EpisodeResults: []EpisodeResult{{
			ID:     "abc",
			Steps:  3,
			Trades: []TradeRecord{{EntryOffset: 2, ExitOffset: 4, Return: 1.5}},
		}},
	}
	if err := WriteReport(path, in); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	out, err := ReadReport(path)
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if out.Policy != "hold" || out.MeanReward != 1.5 || len(out.EpisodeResults) != 1 || out.EpisodeResults[0].Trades[0].ExitOffset != 4 {
		t.Errorf("unexpected report %+v", out)
	}
	if err := WriteReport(path, nil); err == nil {
		t.Error("expected an error for nil results")
	}
}
