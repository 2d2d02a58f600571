package repository

import (
	"time"

	"speed-networking-system/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LockRepository interface {
	// TryAcquire inserts the lock row if no lock exists for its
	// (session, round) pair, using a storage-level uniqueness constraint.
	// Exactly one concurrent caller gets true; everyone else gets false.
	TryAcquire(lock *models.MatchingLock) (bool, error)
	RecordSummary(lockID string, completedAt time.Time, matchCount, unmatchedCount int, solo bool) error
	Get(sessionID, roundID string) (*models.MatchingLock, error)
}

type lockRepository struct {
	db *gorm.DB
}

func NewLockRepository(db *gorm.DB) LockRepository {
	return &lockRepository{db: db}
}

func (r *lockRepository) TryAcquire(lock *models.MatchingLock) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "round_id"}},
		DoNothing: true,
	}).Create(lock)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *lockRepository) RecordSummary(lockID string, completedAt time.Time, matchCount, unmatchedCount int, solo bool) error {
	return r.db.Model(&models.MatchingLock{}).
		Where("id = ?", lockID).
		Updates(map[string]interface{}{
			"completed_at":      completedAt,
			"match_count":       matchCount,
			"unmatched_count":   unmatchedCount,
			"had_solo_leftover": solo,
		}).Error
}

func (r *lockRepository) Get(sessionID, roundID string) (*models.MatchingLock, error) {
	var lock models.MatchingLock
	if err := r.db.First(&lock, "session_id = ? AND round_id = ?", sessionID, roundID).Error; err != nil {
		return nil, translate(err)
	}
	return &lock, nil
}
