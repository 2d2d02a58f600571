package repository

import (
	"time"

	"speed-networking-system/models"

	"gorm.io/gorm"
)

type RegistrationRepository interface {
	Create(reg *models.Registration) error
	Get(id string) (*models.Registration, error)
	GetByParticipantAndRound(participantID, roundID string) (*models.Registration, error)
	ListByRound(roundID string) ([]models.Registration, error)
	CountByRound(roundID string) (int64, error)
	Update(reg *models.Registration) error
	// UpdateStatusGuarded flips status only if the row still holds
	// fromStatus, and reports whether a row actually changed. This is the
	// idempotent-overwrite primitive the status sweep is built on: applying
	// it twice is a no-op, so unsynchronized concurrent sweepers are safe.
	UpdateStatusGuarded(id, fromStatus, toStatus, reason string, now time.Time) (bool, error)
	Delete(id string) error
}

type registrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Create(reg *models.Registration) error {
	return r.db.Create(reg).Error
}

func (r *registrationRepository) Get(id string) (*models.Registration, error) {
	var reg models.Registration
	if err := r.db.First(&reg, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (r *registrationRepository) GetByParticipantAndRound(participantID, roundID string) (*models.Registration, error) {
	var reg models.Registration
	if err := r.db.First(&reg, "participant_id = ? AND round_id = ?", participantID, roundID).Error; err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (r *registrationRepository) ListByRound(roundID string) ([]models.Registration, error) {
	var regs []models.Registration
	if err := r.db.Where("round_id = ?", roundID).
		Order("registered_at ASC, id ASC").
		Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *registrationRepository) CountByRound(roundID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Registration{}).Where("round_id = ?", roundID).Count(&count).Error
	return count, err
}

func (r *registrationRepository) Update(reg *models.Registration) error {
	return r.db.Save(reg).Error
}

func (r *registrationRepository) UpdateStatusGuarded(id, fromStatus, toStatus, reason string, now time.Time) (bool, error) {
	res := r.db.Model(&models.Registration{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status":             toStatus,
			"status_reason":      reason,
			"last_status_update": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *registrationRepository) Delete(id string) error {
	return r.db.Delete(&models.Registration{}, "id = ?", id).Error
}
