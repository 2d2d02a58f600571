package services

import (
	"errors"
	"log"
	"time"

	"speed-networking-system/models"
	"speed-networking-system/repository"
)

// SweepService applies the time-based bulk transitions: no-shows flip to
// unconfirmed once the round starts, everything else flips to completed once
// it ends. Every write is a status-guarded overwrite, so the sweep is
// idempotent and safe for any number of unsynchronized concurrent callers —
// unlike matching, it needs no lock.
type SweepService struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewSweepService(repos *repository.Repositories) *SweepService {
	return &SweepService{repos: repos, now: time.Now}
}

type SweepResult struct {
	UnconfirmedCount int `json:"unconfirmed_count"`
	CompletedCount   int `json:"completed_count"`
}

// Run executes both sweep passes for one round. Safe to call repeatedly at
// any time; before round start it is a no-op.
func (s *SweepService) Run(roundID string) (*SweepResult, error) {
	round, err := s.repos.Rounds.Get(roundID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}

	now := s.now()
	result := &SweepResult{}
	if now.Before(round.StartTime) {
		return result, nil
	}

	regs, err := s.repos.Registrations.ListByRound(roundID)
	if err != nil {
		return nil, err
	}

	// Pass 1: anyone still unconfirmed at start is a no-show for this round.
	for i := range regs {
		reg := &regs[i]
		if reg.Status != models.StatusRegistered {
			continue
		}
		changed, err := s.repos.Registrations.UpdateStatusGuarded(
			reg.ID, models.StatusRegistered, models.StatusUnconfirmed, models.ReasonNoConfirmation, now)
		if err != nil {
			return nil, err
		}
		if changed {
			result.UnconfirmedCount++
		}
	}

	// Pass 2: once the round is over, every non-unconfirmed row completes.
	if !now.Before(round.EndTime()) {
		for i := range regs {
			reg := &regs[i]
			switch reg.Status {
			case models.StatusUnconfirmed, models.StatusCompleted, models.StatusRegistered:
				continue
			}
			changed, err := s.repos.Registrations.UpdateStatusGuarded(
				reg.ID, reg.Status, models.StatusCompleted, "", now)
			if err != nil {
				return nil, err
			}
			if changed {
				result.CompletedCount++
			}
		}
	}

	if result.UnconfirmedCount > 0 || result.CompletedCount > 0 {
		log.Printf("[SWEEP] round %s: %d unconfirmed, %d completed", roundID, result.UnconfirmedCount, result.CompletedCount)
	}
	return result, nil
}
