package models

import (
	"time"
)

// Trade is one entry/exit round trip inside an episode
type Trade struct {
	ID        uint `gorm:"primaryKey"`
	EpisodeID uint `gorm:"index;not null"`

	EntryOffset int     `gorm:"not null"`
	ExitOffset  int     `gorm:"not null"`
	EntryPrice  float64 `gorm:"type:decimal(20,8);not null"`
	ExitPrice   float64 `gorm:"type:decimal(20,8)"`
	Return      float64 `gorm:"column:trade_return;not null"`
	Status      string  `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

const (
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"
)
