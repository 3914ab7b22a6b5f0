// Package factors derives the per-bar feature table the simulator encodes.
package factors

import (
	"TradingEnv/internal/models"
	"TradingEnv/internal/services/indicators"
	"errors"
	"fmt"
	"math"
)

// Count is the number of factor columns Build produces.
const Count = 19

// Names lists the factor columns in table order.
var Names = [Count]string{
	"ret_1",
	"ret_5",
	"ret_20",
	"range",
	"body",
	"upper_wick",
	"lower_wick",
	"volume_change",
	"volume_ratio_20",
	"ema12_dist",
	"ema26_dist",
	"ema_cross",
	"macd",
	"macd_signal",
	"macd_hist",
	"rsi_14",
	"bb_percent_b",
	"bb_width",
	"volatility_20",
}

var (
	ErrNoBars   = errors.New("no bars")
	ErrBadClose = errors.New("close price must be positive")
)

// Table holds one row of Count factors per bar, aligned with the bars it was
// built from.
type Table struct {
	Names []string
	Rows  [][]float64
}

func (t *Table) Len() int   { return len(t.Rows) }
func (t *Table) Width() int { return len(t.Names) }

// Column copies out the named factor for every bar.
func (t *Table) Column(name string) ([]float64, bool) {
	idx := Index(name)
	if idx < 0 {
		return nil, false
	}
	col := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		col[i] = row[idx]
	}
	return col, true
}

// Index returns the column of a factor name, or -1.
func Index(name string) int {
	for i, n := range Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Builder computes factors with the indicator services.
type Builder struct {
	ema  *indicators.EMAService
	rsi  *indicators.RSIService
	macd *indicators.MACDService
	bb   *indicators.BBandsService
}

func NewBuilder() *Builder {
	return &Builder{
		ema:  indicators.NewEMAService(),
		rsi:  indicators.NewRSIService(),
		macd: indicators.NewMACDService(),
		bb:   indicators.NewBBandsService(),
	}
}

// Build derives the factor table for bars, which must be in time order.
// Cells inside an indicator's warm-up, and any non-finite value, are 0.
func (b *Builder) Build(bars []models.Price) (*Table, error) {
	if len(bars) == 0 {
		return nil, ErrNoBars
	}

	n := len(bars)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, bar := range bars {
		if !(bar.Close > 0) {
			return nil, fmt.Errorf("%w: bar %d (%s) has close %v", ErrBadClose, i, bar.OpenTime.Format("2006-01-02 15:04:05"), bar.Close)
		}
		closes[i] = bar.Close
		volumes[i] = bar.Volume
	}

	ema12 := b.ema.Calculate(closes, 12)
	ema26 := b.ema.Calculate(closes, 26)
	macd := b.macd.Calculate(closes, 12, 26, 9)
	rsi := b.rsi.Calculate(closes, 14, 3)
	bands := b.bb.Calculate(closes, 20, 2.0)

	rows := make([][]float64, n)
	for i, bar := range bars {
		c := bar.Close
		row := make([]float64, Count)

		row[0] = pctChange(closes, i, 1)
		row[1] = pctChange(closes, i, 5)
		row[2] = pctChange(closes, i, 20)
		row[3] = (bar.High - bar.Low) / c
		if bar.Open > 0 {
			row[4] = (c - bar.Open) / bar.Open
		}
		row[5] = (bar.High - math.Max(bar.Open, c)) / c
		row[6] = (math.Min(bar.Open, c) - bar.Low) / c
		if i >= 1 && volumes[i-1] > 0 {
			row[7] = volumes[i]/volumes[i-1] - 1
		}
		if i >= 19 {
			if avg := mean(volumes[i-19 : i+1]); avg > 0 {
				row[8] = volumes[i] / avg
			}
		}
		if ema12 != nil && i >= 11 && ema12[i] > 0 {
			row[9] = c/ema12[i] - 1
		}
		if ema26 != nil && i >= 25 && ema26[i] > 0 {
			row[10] = c/ema26[i] - 1
			row[11] = ema12[i]/ema26[i] - 1
		}
		if macd != nil {
			row[12] = macd.MACD[i] / c
			row[13] = macd.Signal[i] / c
			row[14] = macd.Histogram[i] / c
		}
		if rsi != nil {
			row[15] = rsi.RSI[i] / 100
		}
		if bands != nil && i >= 19 {
			row[16] = bands.PercentB[i]
			row[17] = bands.Width[i]
		}
		if i >= 20 {
			row[18] = volatility(closes[i-20 : i+1])
		}

		for f, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[f] = 0
			}
		}
		rows[i] = row
	}

	return &Table{Names: append([]string(nil), Names[:]...), Rows: rows}, nil
}

// Build is a convenience wrapper around a fresh Builder.
func Build(bars []models.Price) (*Table, error) {
	return NewBuilder().Build(bars)
}

func pctChange(closes []float64, i, lag int) float64 {
	if i < lag {
		return 0
	}
	return closes[i]/closes[i-lag] - 1
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// volatility is the population standard deviation of one-bar returns.
func volatility(closes []float64) float64 {
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	avg := mean(returns)
	variance := 0.0
	for _, r := range returns {
		variance += (r - avg) * (r - avg)
	}
	return math.Sqrt(variance / float64(len(returns)))
}
