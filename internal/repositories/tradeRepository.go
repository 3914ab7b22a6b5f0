package repositories

import (
	"TradingEnv/internal/models"

	"gorm.io/gorm"
)

type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new instance of TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// CountByStatus counts trades in a given status across all episodes
func (r *TradeRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Trade{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// GetAverageReturn averages the return of closed trades
func (r *TradeRepository) GetAverageReturn() (float64, error) {
	var avg struct {
		Avg float64
	}
	err := r.db.Model(&models.Trade{}).
		Select("COALESCE(AVG(trade_return), 0) as avg").
		Where("status = ?", models.TradeStatusClosed).
		Scan(&avg).Error
	return avg.Avg, err
}
