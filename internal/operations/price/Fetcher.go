package price

import (
	"context"
	"fmt"
	"sort"
	"time"

	"TradingEnv/internal/models"
	"TradingEnv/internal/operations/binance"

	"go.uber.org/zap"
)

type Fetcher struct {
	source binance.KlineSource
	logger *zap.Logger
	now    func() time.Time
}

// NewFetcher creates a new instance of Fetcher
func NewFetcher(source binance.KlineSource, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// FetchPrices returns the bars of the last days, oldest first.
func (f *Fetcher) FetchPrices(ctx context.Context, symbol, timeframe string, days int) ([]models.Price, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	end := f.now()
	return f.FetchRange(ctx, symbol, timeframe, end.AddDate(0, 0, -days), end)
}

// FetchRange pages through [start, end) in chunks the exchange returns in a
// single response. Bars are de-duplicated by open time and sorted.
func (f *Fetcher) FetchRange(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]models.Price, error) {
	interval, ok := models.TimeFrameDuration(timeframe)
	if !ok {
		return nil, fmt.Errorf("unsupported timeframe %q", timeframe)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("empty range %s to %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	chunk := interval * binance.MaxKlinesPerRequest
	seen := make(map[int64]bool)
	var prices []models.Price

	for currentStart := start; currentStart.Before(end); currentStart = currentStart.Add(chunk) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		currentEnd := currentStart.Add(chunk)
		if currentEnd.After(end) {
			currentEnd = end
		}

		// the end timestamp is inclusive on the exchange side
		klines, err := f.source.GetKlines(ctx, symbol, timeframe, currentStart.UnixMilli(), currentEnd.UnixMilli()-1)
		if err != nil {
			return nil, fmt.Errorf("fetch %s %s: %w", symbol, timeframe, err)
		}
		bars, err := binance.KlinesToPrices(symbol, timeframe, klines)
		if err != nil {
			return nil, err
		}

		for _, bar := range bars {
			key := bar.OpenTime.UnixMilli()
			if seen[key] {
				continue
			}
			seen[key] = true
			prices = append(prices, bar)
		}

		f.logger.Debug("Fetched candles",
			zap.String("symbol", symbol),
			zap.String("timeframe", timeframe),
			zap.Int("count", len(bars)),
			zap.Time("from", currentStart),
			zap.Time("to", currentEnd))
	}

	sort.Slice(prices, func(i, j int) bool {
		return prices[i].OpenTime.Before(prices[j].OpenTime)
	})

	f.logger.Info("Fetched price history",
		zap.String("symbol", symbol),
		zap.String("timeframe", timeframe),
		zap.Int("bars", len(prices)))
	return prices, nil
}
