package repository

import (
	"speed-networking-system/models"

	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(session *models.Session) error
	Update(session *models.Session) error
	Get(id string) (*models.Session, error)
	GetBySlug(slug string) (*models.Session, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *models.Session) error {
	return r.db.Create(session).Error
}

func (r *sessionRepository) Update(session *models.Session) error {
	return r.db.Save(session).Error
}

func (r *sessionRepository) Get(id string) (*models.Session, error) {
	var session models.Session
	if err := r.db.Preload("Rounds").Preload("Rounds.MeetingPoints").
		First(&session, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *sessionRepository) GetBySlug(slug string) (*models.Session, error) {
	var session models.Session
	if err := r.db.Preload("Rounds").Preload("Rounds.MeetingPoints").
		First(&session, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}
