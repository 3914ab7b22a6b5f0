package models

import "time"

// Episode is one finished simulation run over a price series
type Episode struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"type:uuid;uniqueIndex;not null"`
	Symbol    string `gorm:"index;not null"`
	TimeFrame string `gorm:"not null"`
	Policy    string `gorm:"index;not null"`

	StartOffset int `gorm:"not null"`
	EndOffset   int `gorm:"not null"`
	Steps       int `gorm:"not null"`

	TotalReward float64 `gorm:"not null"`
	Commission  float64 `gorm:"not null"` // in reward points
	Entries     int     `gorm:"not null"`
	Exits       int     `gorm:"not null"`

	FinalPosition bool   `gorm:"not null"`
	DoneReason    string `gorm:"not null"`

	StartedAt  time.Time `gorm:"index;not null"`
	FinishedAt time.Time `gorm:"not null"`

	Trades []Trade `gorm:"foreignKey:EpisodeID"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

const (
	DoneReasonSold        = "sold"
	DoneReasonEndOfSeries = "end_of_series"
	DoneReasonMaxSteps    = "max_steps"
)
