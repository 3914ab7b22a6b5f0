package rollout

import (
	"context"
	"fmt"
	"math"
	"time"

	"TradingEnv/internal/environ"
	"TradingEnv/internal/metrics"
	"TradingEnv/internal/models"
	"TradingEnv/internal/services/strategy"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine plays a policy against an environment for a number of episodes.
type Engine struct {
	env     *environ.Env
	policy  strategy.Policy
	store   EpisodeStore
	logger  *zap.Logger
	metrics *metrics.Recorder
	config  Config
	now     func() time.Time
}

// NewEngine creates a new instance of Engine. store may be nil, in which case
// episodes are not persisted.
func NewEngine(env *environ.Env, policy strategy.Policy, store EpisodeStore, logger *zap.Logger, config Config) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		env:    env,
		policy: policy,
		store:  store,
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

// SetMetrics attaches a Prometheus recorder.
func (e *Engine) SetMetrics(rec *metrics.Recorder) {
	e.metrics = rec
}

// Run plays the configured number of episodes. Cancelling ctx stops the run
// between steps and returns ctx's error.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	if e.env == nil || e.policy == nil {
		return nil, fmt.Errorf("rollout needs an environment and a policy")
	}
	if e.config.Episodes <= 0 {
		return nil, fmt.Errorf("episodes must be positive, got %d", e.config.Episodes)
	}
	if e.config.MaxSteps < 0 {
		return nil, fmt.Errorf("max steps must not be negative, got %d", e.config.MaxSteps)
	}

	e.logger.Info("Starting rollout",
		zap.String("policy", e.policy.Name()),
		zap.String("symbol", e.config.Symbol),
		zap.Int("episodes", e.config.Episodes),
		zap.Int("bars", e.env.Series().Len()))

	episodes := make([]EpisodeResult, 0, e.config.Episodes)
	for i := 0; i < e.config.Episodes; i++ {
		ep, err := e.runEpisode(ctx)
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", i+1, err)
		}
		episodes = append(episodes, *ep)

		e.logger.Info("Episode finished",
			zap.String("episode_id", ep.ID),
			zap.Int("start_offset", ep.StartOffset),
			zap.Int("steps", ep.Steps),
			zap.Float64("reward", ep.TotalReward),
			zap.Int("entries", ep.Entries),
			zap.String("done_reason", ep.DoneReason))
	}

	return e.calculateResults(episodes), nil
}

func (e *Engine) runEpisode(ctx context.Context) (*EpisodeResult, error) {
	startedAt := e.now()
	obs, err := e.env.Reset()
	if err != nil {
		return nil, err
	}

	state := e.env.State()
	commission := e.env.Config().Commission * 100
	ep := &EpisodeResult{
		ID:          uuid.NewString(),
		StartOffset: state.Offset(),
	}
	info := environ.Info{}
	var open *TradeRecord

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.config.MaxSteps > 0 && ep.Steps >= e.config.MaxSteps {
			ep.DoneReason = models.DoneReasonMaxSteps
			break
		}

		offset := state.Offset()
		hadPosition := state.HavePosition()
		closePrice, err := state.CurrentClose()
		if err != nil {
			return nil, err
		}

		action := e.policy.Decide(obs, info)
		var reward float64
		var done bool
		obs, reward, done, info, err = e.env.Step(int(action))
		if err != nil {
			return nil, err
		}

		ep.Steps++
		ep.TotalReward += reward
		ep.RewardCurve = append(ep.RewardCurve, reward)
		e.metrics.ObserveStep(info.HavePosition)

		exited := false
		switch {
		case !hadPosition && info.HavePosition == 1:
			ep.Entries++
			ep.Commission += commission
			open = &TradeRecord{EntryOffset: offset, EntryPrice: closePrice, Open: true}
			e.metrics.ObserveTrade(metrics.SideEntry)
			e.metrics.ObserveCommission(commission)
		case hadPosition && info.HavePosition == 0:
			ep.Exits++
			ep.Commission += commission
			exited = true
			if open != nil {
				ep.Trades = append(ep.Trades, closeTrade(*open, offset, closePrice))
				open = nil
			}
			e.metrics.ObserveTrade(metrics.SideExit)
			e.metrics.ObserveCommission(commission)
		}

		if done {
			if exited && e.env.Config().ResetOnSell {
				ep.DoneReason = models.DoneReasonSold
			} else {
				ep.DoneReason = models.DoneReasonEndOfSeries
			}
			break
		}
	}

	ep.EndOffset = state.Offset()
	ep.FinalPosition = state.HavePosition()
	if open != nil {
		last, err := state.CurrentClose()
		if err != nil {
			return nil, err
		}
		trade := closeTrade(*open, ep.EndOffset, last)
		trade.Open = true
		ep.Trades = append(ep.Trades, trade)
	}

	e.metrics.ObserveEpisode(e.policy.Name(), ep.TotalReward)

	if e.store != nil {
		episode, trades := e.toModels(ep, startedAt)
		if err := e.store.SaveEpisode(episode, trades); err != nil {
			return nil, fmt.Errorf("save episode %s: %w", ep.ID, err)
		}
	}
	return ep, nil
}

func closeTrade(t TradeRecord, offset int, price float64) TradeRecord {
	t.ExitOffset = offset
	t.ExitPrice = price
	t.Return = 100 * (price - t.EntryPrice) / t.EntryPrice
	t.Open = false
	return t
}

func (e *Engine) toModels(ep *EpisodeResult, startedAt time.Time) (*models.Episode, []models.Trade) {
	episode := &models.Episode{
		RunID:         ep.ID,
		Symbol:        e.config.Symbol,
		TimeFrame:     e.config.TimeFrame,
		Policy:        e.policy.Name(),
		StartOffset:   ep.StartOffset,
		EndOffset:     ep.EndOffset,
		Steps:         ep.Steps,
		TotalReward:   ep.TotalReward,
		Commission:    ep.Commission,
		Entries:       ep.Entries,
		Exits:         ep.Exits,
		FinalPosition: ep.FinalPosition,
		DoneReason:    ep.DoneReason,
		StartedAt:     startedAt,
		FinishedAt:    e.now(),
	}

	trades := make([]models.Trade, 0, len(ep.Trades))
	for _, t := range ep.Trades {
		status := models.TradeStatusClosed
		if t.Open {
			status = models.TradeStatusOpen
		}
		trades = append(trades, models.Trade{
			EntryOffset: t.EntryOffset,
			ExitOffset:  t.ExitOffset,
			EntryPrice:  t.EntryPrice,
			ExitPrice:   t.ExitPrice,
			Return:      t.Return,
			Status:      status,
		})
	}
	return episode, trades
}

func (e *Engine) calculateResults(episodes []EpisodeResult) *Results {
	results := &Results{
		Policy:         e.policy.Name(),
		Symbol:         e.config.Symbol,
		TimeFrame:      e.config.TimeFrame,
		Episodes:       len(episodes),
		EpisodeResults: episodes,
	}
	if len(episodes) == 0 {
		return results
	}

	rewards := make([]float64, len(episodes))
	totalReward := 0.0
	totalSteps := 0
	wins := 0
	results.BestReward = math.Inf(-1)
	results.WorstReward = math.Inf(1)

	for i, ep := range episodes {
		rewards[i] = ep.TotalReward
		totalReward += ep.TotalReward
		totalSteps += ep.Steps
		if ep.TotalReward > 0 {
			wins++
		}
		results.BestReward = math.Max(results.BestReward, ep.TotalReward)
		results.WorstReward = math.Min(results.WorstReward, ep.TotalReward)
	}

	n := float64(len(episodes))
	results.MeanReward = totalReward / n
	results.MeanSteps = float64(totalSteps) / n
	results.WinRate = float64(wins) / n
	results.SharpeRatio = calculateSharpeRatio(rewards)
	return results
}

// calculateSharpeRatio is the mean over the sample standard deviation of
// episode rewards, not annualized.
func calculateSharpeRatio(rewards []float64) float64 {
	if len(rewards) < 2 {
		return 0
	}

	avg := 0.0
	for _, r := range rewards {
		avg += r
	}
	avg /= float64(len(rewards))

	variance := 0.0
	for _, r := range rewards {
		variance += math.Pow(r-avg, 2)
	}
	variance /= float64(len(rewards) - 1)
	stdDev := math.Sqrt(variance)

	if stdDev == 0 {
		return 0
	}
	return avg / stdDev
}
