package models

import (
	"time"
)

type Price struct {
	ID         uint      `gorm:"primaryKey"`
	Symbol     string    `gorm:"uniqueIndex:idx_price_bar;not null"`
	TimeFrame  string    `gorm:"uniqueIndex:idx_price_bar;not null"`
	OpenTime   time.Time `gorm:"uniqueIndex:idx_price_bar;not null"`
	CloseTime  time.Time `gorm:"index"`
	Open       float64   `gorm:"type:decimal(20,8)"`
	Close      float64   `gorm:"type:decimal(20,8)"`
	High       float64   `gorm:"type:decimal(20,8)"`
	Low        float64   `gorm:"type:decimal(20,8)"`
	Volume     float64   `gorm:"type:decimal(20,8)"`
	TradeCount int64
}

const (
	PriceTimeFrame1m  = "1m"
	PriceTimeFrame5m  = "5m"
	PriceTimeFrame15m = "15m"
	PriceTimeFrame1h  = "1h"
	PriceTimeFrame4h  = "4h"
	PriceTimeFrame1d  = "1d"
)

var timeFrameDurations = map[string]time.Duration{
	PriceTimeFrame1m:  time.Minute,
	PriceTimeFrame5m:  5 * time.Minute,
	PriceTimeFrame15m: 15 * time.Minute,
	PriceTimeFrame1h:  time.Hour,
	PriceTimeFrame4h:  4 * time.Hour,
	PriceTimeFrame1d:  24 * time.Hour,
}

// TimeFrameDuration returns the bar length of a supported timeframe
func TimeFrameDuration(timeFrame string) (time.Duration, bool) {
	d, ok := timeFrameDurations[timeFrame]
	return d, ok
}

// TableName sets the table name for Price model
func (Price) TableName() string {
	return "prices"
}
