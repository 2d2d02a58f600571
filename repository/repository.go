package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned by every repository when a lookup misses, so
// services never depend on the storage driver's error types.
var ErrNotFound = errors.New("record not found")

type Repositories struct {
	Sessions      SessionRepository
	Rounds        RoundRepository
	Registrations RegistrationRepository
	Matches       MatchRepository
	Locks         LockRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Sessions:      NewSessionRepository(db),
		Rounds:        NewRoundRepository(db),
		Registrations: NewRegistrationRepository(db),
		Matches:       NewMatchRepository(db),
		Locks:         NewLockRepository(db),
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
