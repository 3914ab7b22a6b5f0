package config

type Config struct {
	Exchange ExchangeConfig
	Database DatabaseConfig
	Symbols  []string

	TimeFrame   string
	HistoryDays int

	Env     EnvConfig
	Rollout RolloutConfig

	LogLevel    string
	MetricsAddr string

	// parseErr collects variables Load could not parse; Validate reports it.
	parseErr error
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// EnvConfig holds the trading simulator settings.
type EnvConfig struct {
	BarsCount     int
	Commission    float64
	ResetOnSell   bool
	RewardOnEmpty bool
	RandomOffset  bool
	Encoding      string
	// Seed of the random source; 0 picks one from the clock.
	Seed int64
}

type RolloutConfig struct {
	Episodes int
	MaxSteps int
	Policy   string
}
