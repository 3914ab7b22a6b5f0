package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

var (
	encodings = map[string]bool{"windowed": true, "flat": true}
	policies  = map[string]bool{"random": true, "hold": true, "empty": true, "momentum": true, "rsi": true}
)

// Load reads .env when present; variables already set in the process win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var env envReader
	cfg := &Config{
		Exchange: ExchangeConfig{
			APIKey:    os.Getenv("BINANCE_API_KEY"),
			SecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		},
		Database: DatabaseConfig{
			Host:     getString("DB_HOST", "localhost"),
			Port:     env.int("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Symbols:     getSymbols(),
		TimeFrame:   getString("PRICE_TIMEFRAME", "1h"),
		HistoryDays: env.int("HISTORY_DAYS", 30),
		Env: EnvConfig{
			BarsCount:     env.int("ENV_BARS_COUNT", 10),
			Commission:    env.float("ENV_COMMISSION", 0.00025),
			ResetOnSell:   env.bool("ENV_RESET_ON_SELL", true),
			RewardOnEmpty: env.bool("ENV_REWARD_ON_EMPTY", false),
			RandomOffset:  env.bool("ENV_RANDOM_OFFSET", true),
			Encoding:      strings.ToLower(getString("ENV_ENCODING", "windowed")),
			Seed:          int64(env.int("ENV_SEED", 0)),
		},
		Rollout: RolloutConfig{
			Episodes: env.int("ROLLOUT_EPISODES", 10),
			MaxSteps: env.int("ROLLOUT_MAX_STEPS", 0),
			Policy:   strings.ToLower(getString("ROLLOUT_POLICY", "random")),
		},
		LogLevel:    strings.ToLower(getString("LOG_LEVEL", "info")),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
	}
	cfg.parseErr = env.err
	return cfg, nil
}

// Validate reports every invalid setting at once, including values Load
// could not parse.
func (c *Config) Validate() error {
	err := c.parseErr
	if len(c.Symbols) == 0 {
		err = multierr.Append(err, errors.New("TRADING_SYMBOLS is empty"))
	}
	if c.HistoryDays <= 0 {
		err = multierr.Append(err, fmt.Errorf("HISTORY_DAYS must be positive, got %d", c.HistoryDays))
	}
	if c.Env.BarsCount <= 0 {
		err = multierr.Append(err, fmt.Errorf("ENV_BARS_COUNT must be positive, got %d", c.Env.BarsCount))
	}
	if c.Env.Commission < 0 {
		err = multierr.Append(err, fmt.Errorf("ENV_COMMISSION must not be negative, got %v", c.Env.Commission))
	}
	if !encodings[c.Env.Encoding] {
		err = multierr.Append(err, fmt.Errorf("unknown ENV_ENCODING %q", c.Env.Encoding))
	}
	if c.Rollout.Episodes <= 0 {
		err = multierr.Append(err, fmt.Errorf("ROLLOUT_EPISODES must be positive, got %d", c.Rollout.Episodes))
	}
	if c.Rollout.MaxSteps < 0 {
		err = multierr.Append(err, fmt.Errorf("ROLLOUT_MAX_STEPS must not be negative, got %d", c.Rollout.MaxSteps))
	}
	if !policies[c.Rollout.Policy] {
		err = multierr.Append(err, fmt.Errorf("unknown ROLLOUT_POLICY %q", c.Rollout.Policy))
	}
	if _, lerr := zapcore.ParseLevel(c.LogLevel); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("LOG_LEVEL: %w", lerr))
	}
	return err
}

// DSN is the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		d.Host, d.User, d.Password, d.DBName, d.Port)
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envReader parses typed variables. A value that does not parse keeps the
// default and is recorded in err.
type envReader struct {
	err error
}

func (r *envReader) int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		r.err = multierr.Append(r.err, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return i
}

func (r *envReader) float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.err = multierr.Append(r.err, fmt.Errorf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (r *envReader) bool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.err = multierr.Append(r.err, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

// helper to get symbols
func getSymbols() []string {
	symbols := os.Getenv("TRADING_SYMBOLS")
	if symbols == "" {
		return []string{"BTCUSDT", "ETHUSDT"} // Default pairs if none specified
	}
	var out []string
	for _, s := range strings.Split(symbols, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
