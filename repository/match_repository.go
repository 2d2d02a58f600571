package repository

import (
	"speed-networking-system/models"

	"gorm.io/gorm"
)

type MatchRepository interface {
	ListBySessionWithMembers(sessionID string) ([]models.Match, error)
	CountByRound(roundID string) (int64, error)
	// PersistAssignments writes every match row, every member row and every
	// updated registration of one matching run in a single transaction.
	// Either the whole round's result lands or none of it does — there is no
	// state where some members are matched and others still confirmed.
	PersistAssignments(matches []models.Match, registrations []models.Registration) error
}

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) ListBySessionWithMembers(sessionID string) ([]models.Match, error) {
	var matches []models.Match
	if err := r.db.Preload("Members").
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&matches).Error; err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *matchRepository) CountByRound(roundID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Match{}).Where("round_id = ?", roundID).Count(&count).Error
	return count, err
}

func (r *matchRepository) PersistAssignments(matches []models.Match, registrations []models.Registration) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range matches {
			if err := tx.Create(&matches[i]).Error; err != nil {
				return err
			}
		}
		for i := range registrations {
			if err := tx.Save(&registrations[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
