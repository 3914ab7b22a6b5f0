package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"TRADING_SYMBOLS", "PRICE_TIMEFRAME", "HISTORY_DAYS", "DB_PORT",
		"ENV_BARS_COUNT", "ENV_COMMISSION", "ENV_RESET_ON_SELL", "ENV_REWARD_ON_EMPTY",
		"ENV_RANDOM_OFFSET", "ENV_ENCODING", "ENV_SEED",
		"ROLLOUT_EPISODES", "ROLLOUT_MAX_STEPS", "ROLLOUT_POLICY", "LOG_LEVEL", "METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "BTCUSDT" {
		t.Errorf("unexpected symbols %v", cfg.Symbols)
	}
	if cfg.TimeFrame != "1h" || cfg.HistoryDays != 30 || cfg.Database.Port != 5432 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	env := cfg.Env
	if env.BarsCount != 10 || env.Commission != 0.00025 || !env.ResetOnSell || env.RewardOnEmpty || !env.RandomOffset || env.Encoding != "windowed" || env.Seed != 0 {
		t.Errorf("unexpected env defaults %+v", env)
	}
	if cfg.Rollout.Episodes != 10 || cfg.Rollout.Policy != "random" || cfg.Rollout.MaxSteps != 0 {
		t.Errorf("unexpected rollout defaults %+v", cfg.Rollout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRADING_SYMBOLS", " solusdt, ,btcusdt")
	t.Setenv("ENV_BARS_COUNT", "50")
	t.Setenv("ENV_COMMISSION", "0.001")
	t.Setenv("ENV_RESET_ON_SELL", "false")
	t.Setenv("ENV_ENCODING", "FLAT")
	t.Setenv("ENV_SEED", "42")
	t.Setenv("ROLLOUT_POLICY", "Momentum")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "SOLUSDT" || cfg.Symbols[1] != "BTCUSDT" {
		t.Errorf("unexpected symbols %v", cfg.Symbols)
	}
	if cfg.Env.BarsCount != 50 || cfg.Env.Commission != 0.001 || cfg.Env.ResetOnSell || cfg.Env.Encoding != "flat" || cfg.Env.Seed != 42 {
		t.Errorf("unexpected env %+v", cfg.Env)
	}
	if cfg.Rollout.Policy != "momentum" {
		t.Errorf("unexpected policy %q", cfg.Rollout.Policy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("overrides should validate: %v", err)
	}
}

func TestLoadReportsUnparsedValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ENV_BARS_COUNT", "abc"},
		{"HISTORY_DAYS", "not-a-number"},
		{"ENV_COMMISSION", "cheap"},
		{"ENV_RESET_ON_SELL", "maybe"},
		{"ENV_SEED", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			err = cfg.Validate()
			if err == nil {
				t.Fatalf("expected %s=%q to be rejected", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) || !strings.Contains(err.Error(), tt.value) {
				t.Errorf("error does not name %s=%q: %v", tt.key, tt.value, err)
			}
		})
	}
}

func TestLoadAcceptsRSIPolicy(t *testing.T) {
	t.Setenv("ROLLOUT_POLICY", "RSI")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rollout.Policy != "rsi" {
		t.Errorf("unexpected policy %q", cfg.Rollout.Policy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("rsi policy should validate: %v", err)
	}
}

func TestValidateAggregates(t *testing.T) {
	cfg := &Config{
		HistoryDays: 0,
		Env:         EnvConfig{BarsCount: 0, Commission: -1, Encoding: "sparse"},
		Rollout:     RolloutConfig{Episodes: 0, MaxSteps: -1, Policy: "martingale"},
		LogLevel:    "loud",
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{
		"TRADING_SYMBOLS", "HISTORY_DAYS", "ENV_BARS_COUNT", "ENV_COMMISSION", "ENV_ENCODING",
		"ROLLOUT_EPISODES", "ROLLOUT_MAX_STEPS", "ROLLOUT_POLICY", "LOG_LEVEL",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "env"}
	want := "host=db user=u password=p dbname=env port=5433 sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
