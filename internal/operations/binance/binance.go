package binance

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"TradingEnv/internal/models"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MaxKlinesPerRequest is the page size Binance allows for kline requests.
const MaxKlinesPerRequest = 500

// KlineSource serves candles for a symbol between two millisecond timestamps.
type KlineSource interface {
	GetKlines(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]*futures.Kline, error)
}

type Client struct {
	client      *futures.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	maxRetries  int
	backoff     time.Duration
}

// NewClient creates a futures client limited to 10 requests per second with
// a burst of 20.
func NewClient(apiKey, secretKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Timeout: time.Second * 10,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	futuresClient := futures.NewClient(apiKey, secretKey)
	futuresClient.HTTPClient = httpClient

	return &Client{
		client:      futuresClient,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 20),
		logger:      logger,
		maxRetries:  3,
		backoff:     100 * time.Millisecond,
	}
}

// GetKlines fetches one page of candles, retrying with exponential backoff.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, startTime, endTime int64) ([]*futures.Kline, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(startTime).
			EndTime(endTime).
			Limit(MaxKlinesPerRequest).
			Do(ctx)
		if err == nil {
			return klines, nil
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * c.backoff
		c.logger.Warn("Kline request failed, retrying",
			zap.String("symbol", symbol),
			zap.String("interval", interval),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", waitTime),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return nil, fmt.Errorf("get klines %s %s after %d retries: %w", symbol, interval, c.maxRetries, lastErr)
}

// KlinesToPrices converts candles to price bars. Binance sends prices as
// decimal strings, which are parsed exactly before narrowing to float64.
func KlinesToPrices(symbol, timeFrame string, klines []*futures.Kline) ([]models.Price, error) {
	prices := make([]models.Price, 0, len(klines))
	for _, k := range klines {
		if k == nil {
			continue
		}
		fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}
		var values [5]float64
		for i, s := range fields {
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("kline %s %d: %w", symbol, k.OpenTime, err)
			}
			values[i] = d.InexactFloat64()
		}

		prices = append(prices, models.Price{
			Symbol:     symbol,
			TimeFrame:  timeFrame,
			OpenTime:   time.UnixMilli(k.OpenTime).UTC(),
			CloseTime:  time.UnixMilli(k.CloseTime).UTC(),
			Open:       values[0],
			High:       values[1],
			Low:        values[2],
			Close:      values[3],
			Volume:     values[4],
			TradeCount: k.TradeNum,
		})
	}
	return prices, nil
}
