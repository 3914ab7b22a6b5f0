package rollout

import "TradingEnv/internal/models"

// Config controls a rollout run.
type Config struct {
	Episodes int
	// MaxSteps caps an episode's length; 0 means run until done.
	MaxSteps  int
	Symbol    string
	TimeFrame string
}

// NewConfig creates default config
func NewConfig() Config {
	return Config{
		Episodes: 10,
	}
}

// EpisodeStore persists finished episodes. It is satisfied by
// repositories.EpisodeRepository.
type EpisodeStore interface {
	SaveEpisode(episode *models.Episode, trades []models.Trade) error
}

// TradeRecord is one position held inside an episode. Return is in percent.
type TradeRecord struct {
	EntryOffset int     `yaml:"entry_offset"`
	ExitOffset  int     `yaml:"exit_offset"`
	EntryPrice  float64 `yaml:"entry_price"`
	ExitPrice   float64 `yaml:"exit_price"`
	Return      float64 `yaml:"return"`
	Open        bool    `yaml:"open"`
}

type EpisodeResult struct {
	ID            string        `yaml:"id"`
	StartOffset   int           `yaml:"start_offset"`
	EndOffset     int           `yaml:"end_offset"`
	Steps         int           `yaml:"steps"`
	TotalReward   float64       `yaml:"total_reward"`
	Commission    float64       `yaml:"commission"`
	Entries       int           `yaml:"entries"`
	Exits         int           `yaml:"exits"`
	FinalPosition bool          `yaml:"final_position"`
	DoneReason    string        `yaml:"done_reason"`
	Trades        []TradeRecord `yaml:"trades,omitempty"`
	RewardCurve   []float64     `yaml:"-"`
}

// Results aggregates a rollout run.
type Results struct {
	Policy    string `yaml:"policy"`
	Symbol    string `yaml:"symbol,omitempty"`
	TimeFrame string `yaml:"timeframe,omitempty"`

	Episodes    int     `yaml:"episodes"`
	MeanReward  float64 `yaml:"mean_reward"`
	BestReward  float64 `yaml:"best_reward"`
	WorstReward float64 `yaml:"worst_reward"`
	WinRate     float64 `yaml:"win_rate"`
	MeanSteps   float64 `yaml:"mean_steps"`
	SharpeRatio float64 `yaml:"sharpe_ratio"`

	EpisodeResults []EpisodeResult `yaml:"episode_results"`
}
