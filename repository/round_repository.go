package repository

import (
	"time"

	"speed-networking-system/models"

	"gorm.io/gorm"
)

type RoundRepository interface {
	Create(round *models.Round) error
	Update(round *models.Round) error
	Get(id string) (*models.Round, error)
	// ListRecentlyDue returns rounds that have started by now and ended no
	// earlier than now minus lookback. Used by the boundary scheduler to
	// know which rounds still need a sweep or a matching trigger.
	ListRecentlyDue(now time.Time, lookback time.Duration) ([]models.Round, error)
	AddMeetingPoints(points []models.MeetingPoint) error
}

type roundRepository struct {
	db *gorm.DB
}

func NewRoundRepository(db *gorm.DB) RoundRepository {
	return &roundRepository{db: db}
}

func (r *roundRepository) Create(round *models.Round) error {
	return r.db.Create(round).Error
}

func (r *roundRepository) Update(round *models.Round) error {
	return r.db.Save(round).Error
}

func (r *roundRepository) Get(id string) (*models.Round, error) {
	var round models.Round
	if err := r.db.Preload("MeetingPoints", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).First(&round, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &round, nil
}

func (r *roundRepository) ListRecentlyDue(now time.Time, lookback time.Duration) ([]models.Round, error) {
	var rounds []models.Round
	cutoff := now.Add(-lookback)
	// duration_mins is applied in SQL so we don't load every historical round.
	err := r.db.Where("start_time <= ? AND start_time + (duration_mins * interval '1 minute') >= ?", now, cutoff).
		Order("start_time ASC").
		Find(&rounds).Error
	if err != nil {
		return nil, err
	}
	return rounds, nil
}

func (r *roundRepository) AddMeetingPoints(points []models.MeetingPoint) error {
	if len(points) == 0 {
		return nil
	}
	return r.db.Create(&points).Error
}
