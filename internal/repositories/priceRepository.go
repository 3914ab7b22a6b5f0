package repositories

import (
	"TradingEnv/internal/models"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a new instance of PriceRepository
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// CreateBatch inserts bars, skipping any bar already stored for the same
// symbol, timeframe and open time. It returns the number of new rows.
func (r *PriceRepository) CreateBatch(prices []models.Price) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(prices, 500)
	return int(result.RowsAffected), result.Error
}

// GetPricesByTimeFrame gets price data for a specific symbol and timeframe
func (r *PriceRepository) GetPricesByTimeFrame(symbol string, timeFrame string, start, end time.Time) ([]models.Price, error) {
	if symbol == "" || timeFrame == "" {
		return nil, errors.New("invalid symbol or timeframe")
	}

	var prices []models.Price
	err := r.db.Where("symbol = ? AND time_frame = ? AND open_time BETWEEN ? AND ?",
		symbol, timeFrame, start, end).
		Order("open_time ASC").
		Find(&prices).Error
	return prices, err
}

// GetLatestPriceByTimeFrame gets the most recent price for a symbol and timeframe
func (r *PriceRepository) GetLatestPriceByTimeFrame(symbol, timeFrame string) (*models.Price, error) {
	if symbol == "" || timeFrame == "" {
		return nil, errors.New("invalid symbol or timeframe")
	}

	var price models.Price
	err := r.db.Where("symbol = ? AND time_frame = ?", symbol, timeFrame).
		Order("open_time DESC").
		First(&price).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &price, err
}

// CountByTimeFrame counts stored bars for a symbol and timeframe
func (r *PriceRepository) CountByTimeFrame(symbol, timeFrame string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Price{}).
		Where("symbol = ? AND time_frame = ?", symbol, timeFrame).
		Count(&count).Error
	return count, err
}
