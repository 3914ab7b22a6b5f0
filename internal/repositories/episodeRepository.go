package repositories

import (
	"TradingEnv/internal/models"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type EpisodeRepository struct {
	db *gorm.DB
}

// NewEpisodeRepository creates a new instance of EpisodeRepository
func NewEpisodeRepository(db *gorm.DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

// SaveEpisode stores an episode and its trades in one transaction
func (r *EpisodeRepository) SaveEpisode(episode *models.Episode, trades []models.Trade) error {
	if episode == nil {
		return errors.New("episode cannot be nil")
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Trades").Create(episode).Error; err != nil {
			return fmt.Errorf("create episode: %w", err)
		}
		if len(trades) == 0 {
			return nil
		}
		for i := range trades {
			trades[i].EpisodeID = episode.ID
		}
		if err := tx.Create(&trades).Error; err != nil {
			return fmt.Errorf("create trades: %w", err)
		}
		return nil
	})
}

// FindByRunID retrieves an episode with its trades
func (r *EpisodeRepository) FindByRunID(runID string) (*models.Episode, error) {
	if runID == "" {
		return nil, errors.New("invalid run id")
	}
	var episode models.Episode
	err := r.db.Preload("Trades").Where("run_id = ?", runID).First(&episode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &episode, err
}

// FindRecent returns the latest episodes, newest first
func (r *EpisodeRepository) FindRecent(limit int) ([]models.Episode, error) {
	if limit <= 0 {
		limit = 20
	}
	var episodes []models.Episode
	err := r.db.Order("finished_at DESC").Limit(limit).Find(&episodes).Error
	return episodes, err
}

// FindByPolicy retrieves every episode a policy has run on a symbol
func (r *EpisodeRepository) FindByPolicy(policy, symbol string) ([]models.Episode, error) {
	if policy == "" || symbol == "" {
		return nil, errors.New("invalid policy or symbol")
	}
	var episodes []models.Episode
	err := r.db.Where("policy = ? AND symbol = ?", policy, symbol).
		Order("started_at ASC").
		Find(&episodes).Error
	return episodes, err
}

// GetAverageReward averages total reward over a policy's stored episodes
func (r *EpisodeRepository) GetAverageReward(policy string) (float64, error) {
	var avg struct {
		Avg float64
	}
	err := r.db.Model(&models.Episode{}).
		Select("COALESCE(AVG(total_reward), 0) as avg").
		Where("policy = ?", policy).
		Scan(&avg).Error
	return avg.Avg, err
}
