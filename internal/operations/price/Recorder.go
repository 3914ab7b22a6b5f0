package price

import (
	"context"
	"fmt"
	"time"

	"TradingEnv/internal/models"

	"go.uber.org/zap"
)

// PriceStore persists bars. It is satisfied by repositories.PriceRepository.
type PriceStore interface {
	CreateBatch(prices []models.Price) (int, error)
	GetLatestPriceByTimeFrame(symbol, timeFrame string) (*models.Price, error)
}

type Recorder struct {
	fetcher *Fetcher
	store   PriceStore
	symbols []string
	logger  *zap.Logger
}

// NewRecorder creates a new instance of Recorder
func NewRecorder(fetcher *Fetcher, store PriceStore, symbols []string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		fetcher: fetcher,
		store:   store,
		symbols: symbols,
		logger:  logger,
	}
}

// Record stores bars, skipping ones already present. It returns how many were new.
func (r *Recorder) Record(bars []models.Price) (int, error) {
	return r.store.CreateBatch(bars)
}

// StartRecording polls every symbol for each timeframe until ctx is done.
func (r *Recorder) StartRecording(ctx context.Context, timeframes []string) {
	for _, timeframe := range timeframes {
		interval, ok := models.TimeFrameDuration(timeframe)
		if !ok {
			r.logger.Warn("Skipping unsupported timeframe", zap.String("timeframe", timeframe))
			continue
		}
		go r.recordTimeframe(ctx, timeframe, interval)
	}
}

func (r *Recorder) recordTimeframe(ctx context.Context, timeframe string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Starting price recording", zap.String("timeframe", timeframe))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping price recording", zap.String("timeframe", timeframe))
			return
		case <-ticker.C:
			for _, symbol := range r.symbols {
				if _, err := r.CatchUp(ctx, symbol, timeframe); err != nil {
					r.logger.Error("Price recording failed",
						zap.String("symbol", symbol),
						zap.String("timeframe", timeframe),
						zap.Error(err))
				}
			}
		}
	}
}

// CatchUp fetches and stores the bars after the latest stored one. With no
// stored bars it fetches a single day.
func (r *Recorder) CatchUp(ctx context.Context, symbol, timeframe string) (int, error) {
	interval, ok := models.TimeFrameDuration(timeframe)
	if !ok {
		return 0, fmt.Errorf("unsupported timeframe %q", timeframe)
	}
	latest, err := r.store.GetLatestPriceByTimeFrame(symbol, timeframe)
	if err != nil {
		return 0, err
	}

	end := r.fetcher.now()
	start := end.AddDate(0, 0, -1)
	if latest != nil {
		start = latest.OpenTime.Add(interval)
	}
	if !start.Before(end) {
		return 0, nil
	}

	bars, err := r.fetcher.FetchRange(ctx, symbol, timeframe, start, end)
	if err != nil {
		return 0, err
	}
	stored, err := r.Record(bars)
	if err != nil {
		return 0, err
	}
	r.logger.Info("Recorded prices",
		zap.String("symbol", symbol),
		zap.String("timeframe", timeframe),
		zap.Int("fetched", len(bars)),
		zap.Int("stored", stored))
	return stored, nil
}
