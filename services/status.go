package services

import (
	"time"

	"speed-networking-system/models"
)

// The time-dependent states are re-derived on every read instead of being
// persisted by a background job: dashboards poll, and a status that is a
// pure function of the stored row plus the clock stays correct under clock
// drift and missed runs. Only real transitions (confirm, match, check-in,
// sweep results) hit the database.

// DeriveDisplayStatus maps a stored registration status to the status shown
// to the participant at the given instant.
func DeriveDisplayStatus(reg *models.Registration, round *models.Round, now time.Time) string {
	switch reg.Status {
	case models.StatusRegistered:
		if !now.Before(round.ConfirmationOpensAt()) {
			return models.StatusWaitingConfirmation
		}
	case models.StatusConfirmed:
		if !now.Before(round.StartTime) {
			return models.StatusWaitingMatch
		}
	}
	return reg.Status
}

// RegistrationOpen reports whether the round still accepts new
// registrations. The cancel cutoff doubles as the registration cutoff.
func RegistrationOpen(round *models.Round, now time.Time) bool {
	return now.Before(round.CancelDeadline())
}

// CanCancel reports whether a voluntary unregister is still allowed. Only
// pre-confirmation statuses may cancel, and only before the safety window.
func CanCancel(reg *models.Registration, round *models.Round, now time.Time) bool {
	if reg.Status != models.StatusRegistered {
		return false
	}
	return now.Before(round.CancelDeadline())
}

// ConfirmationOpen reports whether an attendance confirmation is accepted:
// any time strictly before round start.
func ConfirmationOpen(round *models.Round, now time.Time) bool {
	return now.Before(round.StartTime)
}
