package handlers

import (
	"context"
	"fmt"
	"time"

	"TradingEnv/internal/environ"
	"TradingEnv/internal/models"
	"TradingEnv/internal/operations/price"
	"TradingEnv/internal/services/factors"

	"go.uber.org/zap"
)

// PriceRepository is the slice of repositories.PriceRepository the handler uses.
type PriceRepository interface {
	price.PriceStore
	GetPricesByTimeFrame(symbol string, timeFrame string, start, end time.Time) ([]models.Price, error)
}

// HistoryFetcher downloads past bars. It is satisfied by price.Fetcher.
type HistoryFetcher interface {
	FetchPrices(ctx context.Context, symbol, timeframe string, days int) ([]models.Price, error)
}

type PriceHandler struct {
	priceRepo PriceRepository
	fetcher   HistoryFetcher
	recorder  *price.Recorder
	factors   *factors.Builder
	logger    *zap.Logger
	now       func() time.Time
}

// NewPriceHandler creates a new instance of PriceHandler. fetcher may be nil,
// in which case only stored bars are used.
func NewPriceHandler(priceRepo PriceRepository, fetcher HistoryFetcher, logger *zap.Logger) *PriceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceHandler{
		priceRepo: priceRepo,
		fetcher:   fetcher,
		factors:   factors.NewBuilder(),
		logger:    logger,
		now:       time.Now,
	}
}

// SetRecorder enables live recording in Start.
func (h *PriceHandler) SetRecorder(recorder *price.Recorder) {
	h.recorder = recorder
}

// Start syncs history for every symbol and timeframe, then keeps recording
// new bars in the background when a recorder is set.
func (h *PriceHandler) Start(ctx context.Context, symbols, timeframes []string, days int) error {
	for _, symbol := range symbols {
		for _, timeframe := range timeframes {
			if _, err := h.Sync(ctx, symbol, timeframe, days); err != nil {
				return err
			}
		}
	}

	if h.recorder != nil {
		h.recorder.StartRecording(ctx, timeframes)
	}
	return nil
}

// Sync downloads the last days of bars and stores the ones not yet stored.
func (h *PriceHandler) Sync(ctx context.Context, symbol, timeframe string, days int) (int, error) {
	if h.fetcher == nil {
		return 0, fmt.Errorf("no price fetcher configured")
	}

	h.logger.Info("Fetching historical data",
		zap.String("symbol", symbol),
		zap.String("timeframe", timeframe),
		zap.Int("days", days))

	bars, err := h.fetcher.FetchPrices(ctx, symbol, timeframe, days)
	if err != nil {
		return 0, err
	}
	stored, err := h.priceRepo.CreateBatch(bars)
	if err != nil {
		return 0, fmt.Errorf("store %s %s bars: %w", symbol, timeframe, err)
	}

	h.logger.Info("Stored historical data",
		zap.String("symbol", symbol),
		zap.String("timeframe", timeframe),
		zap.Int("fetched", len(bars)),
		zap.Int("new", stored))
	return stored, nil
}

// LoadSeries builds a simulator series from the stored bars of the last
// days. When fewer than minBars are stored it syncs from the exchange first.
func (h *PriceHandler) LoadSeries(ctx context.Context, symbol, timeframe string, days, minBars int) (*environ.Series, error) {
	if _, ok := models.TimeFrameDuration(timeframe); !ok {
		return nil, fmt.Errorf("unsupported timeframe %q", timeframe)
	}

	bars, err := h.loadBars(symbol, timeframe, days)
	if err != nil {
		return nil, err
	}

	if len(bars) < minBars && h.fetcher != nil {
		h.logger.Info("Not enough stored bars, syncing",
			zap.String("symbol", symbol),
			zap.Int("stored", len(bars)),
			zap.Int("needed", minBars))
		if _, err := h.Sync(ctx, symbol, timeframe, days); err != nil {
			return nil, err
		}
		if bars, err = h.loadBars(symbol, timeframe, days); err != nil {
			return nil, err
		}
	}

	if len(bars) < minBars {
		return nil, fmt.Errorf("%w: %d %s %s bars stored, need %d", environ.ErrInvalidSeries, len(bars), symbol, timeframe, minBars)
	}
	return h.BuildSeries(bars)
}

func (h *PriceHandler) loadBars(symbol, timeframe string, days int) ([]models.Price, error) {
	end := h.now()
	return h.priceRepo.GetPricesByTimeFrame(symbol, timeframe, end.AddDate(0, 0, -days), end)
}

// BuildSeries derives factors for bars and wraps them as a series.
func (h *PriceHandler) BuildSeries(bars []models.Price) (*environ.Series, error) {
	table, err := h.factors.Build(bars)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return environ.NewSeries(closes, table.Rows, table.Names)
}
