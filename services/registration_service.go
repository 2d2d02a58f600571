package services

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"speed-networking-system/models"
	"speed-networking-system/repository"

	"github.com/google/uuid"
)

// Notifier delivers participant-facing messages. Implementations are
// fire-and-forget: they must never block a status transition and their
// failures are never propagated back to the engine.
type Notifier interface {
	AttendanceConfirmed(reg models.Registration, round models.Round)
	MatchAssigned(reg models.Registration, round models.Round)
}

// NopNotifier is used in tests and wherever no gateway is configured.
type NopNotifier struct{}

func (NopNotifier) AttendanceConfirmed(models.Registration, models.Round) {}
func (NopNotifier) MatchAssigned(models.Registration, models.Round)       {}

type RegistrationService struct {
	repos    *repository.Repositories
	notifier Notifier
	now      func() time.Time
}

func NewRegistrationService(repos *repository.Repositories, notifier Notifier) *RegistrationService {
	return &RegistrationService{repos: repos, notifier: notifier, now: time.Now}
}

type RegisterInput struct {
	RoundID         string   `json:"round_id"`
	ParticipantID   string   `json:"participant_id"`
	ParticipantName string   `json:"participant_name"`
	Team            string   `json:"team,omitempty"`
	Topics          []string `json:"topics,omitempty"`
}

// Register creates the (participant, round) registration. Rounds accept
// registrations until the cancel cutoff before start.
func (s *RegistrationService) Register(in RegisterInput) (*models.Registration, error) {
	round, err := s.repos.Rounds.Get(in.RoundID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if !RegistrationOpen(round, s.now()) {
		return nil, ErrRegistrationClosed
	}
	if _, err := s.repos.Registrations.GetByParticipantAndRound(in.ParticipantID, in.RoundID); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if round.MaxParticipants > 0 {
		count, err := s.repos.Registrations.CountByRound(in.RoundID)
		if err != nil {
			return nil, err
		}
		if count >= int64(round.MaxParticipants) {
			return nil, ErrRoundFull
		}
	}

	topicsJSON := ""
	if len(in.Topics) > 0 {
		b, _ := json.Marshal(in.Topics)
		topicsJSON = string(b)
	}

	reg := &models.Registration{
		ID:              uuid.NewString(),
		SessionID:       round.SessionID,
		RoundID:         round.ID,
		ParticipantID:   in.ParticipantID,
		ParticipantName: in.ParticipantName,
		Status:          models.StatusRegistered,
		Team:            in.Team,
		TopicsJSON:      topicsJSON,
		RegisteredAt:    s.now(),
	}
	if err := s.repos.Registrations.Create(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Unregister removes a registration entirely. Allowed only while the
// participant has not confirmed yet and only before the safety window.
func (s *RegistrationService) Unregister(participantID, roundID string) error {
	round, reg, err := s.load(participantID, roundID)
	if err != nil {
		return err
	}
	if !CanCancel(reg, round, s.now()) {
		return ErrTooLateToCancel
	}
	return s.repos.Registrations.Delete(reg.ID)
}

// ConfirmAttendance moves a registration to confirmed. Accepted any time
// strictly before round start; afterwards the window is closed and the row
// is left untouched. Confirming twice is a no-op.
func (s *RegistrationService) ConfirmAttendance(participantID, roundID string) (*models.Registration, error) {
	round, reg, err := s.load(participantID, roundID)
	if err != nil {
		return nil, err
	}
	if reg.Status == models.StatusConfirmed {
		return reg, nil
	}
	if reg.Status != models.StatusRegistered || !ConfirmationOpen(round, s.now()) {
		return nil, ErrWindowClosed
	}

	now := s.now()
	reg.Status = models.StatusConfirmed
	reg.StatusReason = ""
	reg.ConfirmedAt = &now
	reg.LastStatusUpdate = &now
	if err := s.repos.Registrations.Update(reg); err != nil {
		return nil, err
	}
	s.notifier.AttendanceConfirmed(*reg, *round)
	return reg, nil
}

// OnMyWay records that a matched participant started walking to their
// meeting point.
func (s *RegistrationService) OnMyWay(participantID, roundID string) (*models.Registration, error) {
	_, reg, err := s.load(participantID, roundID)
	if err != nil {
		return nil, err
	}
	if reg.Status != models.StatusMatched {
		return nil, ErrNotMatched
	}
	now := s.now()
	reg.Status = models.StatusWalking
	reg.LastStatusUpdate = &now
	if err := s.repos.Registrations.Update(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// CheckIn validates the code displayed at the participant's assigned
// meeting point. A wrong code never mutates status.
func (s *RegistrationService) CheckIn(participantID, roundID, code string) (*models.Registration, error) {
	round, reg, err := s.load(participantID, roundID)
	if err != nil {
		return nil, err
	}
	if reg.Status != models.StatusMatched && reg.Status != models.StatusWalking {
		return nil, ErrNotMatched
	}

	var assigned *models.MeetingPoint
	for i := range round.MeetingPoints {
		if round.MeetingPoints[i].ID == reg.MeetingPointID {
			assigned = &round.MeetingPoints[i]
			break
		}
	}
	if assigned == nil || !strings.EqualFold(strings.TrimSpace(code), assigned.CheckinCode) {
		return nil, ErrInvalidCheckinCode
	}

	now := s.now()
	reg.Status = models.StatusCheckedIn
	reg.CheckedInAt = &now
	reg.LastStatusUpdate = &now
	if err := s.repos.Registrations.Update(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// ConfirmMeeting marks the meeting as having happened. Mutual: it requires
// at least one other member of the same match to have checked in already.
func (s *RegistrationService) ConfirmMeeting(participantID, roundID string) (*models.Registration, error) {
	_, reg, err := s.load(participantID, roundID)
	if err != nil {
		return nil, err
	}
	if reg.Status != models.StatusCheckedIn {
		if reg.Status == models.StatusMet {
			return reg, nil
		}
		return nil, ErrPartnerNotReady
	}

	others, err := s.repos.Registrations.ListByRound(roundID)
	if err != nil {
		return nil, err
	}
	partnerReady := false
	for i := range others {
		o := &others[i]
		if o.ID == reg.ID || o.MatchID != reg.MatchID || reg.MatchID == "" {
			continue
		}
		if o.Status == models.StatusCheckedIn || o.Status == models.StatusMet {
			partnerReady = true
			break
		}
	}
	if !partnerReady {
		return nil, ErrPartnerNotReady
	}

	now := s.now()
	reg.Status = models.StatusMet
	reg.MetAt = &now
	reg.LastStatusUpdate = &now
	if err := s.repos.Registrations.Update(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// DashboardView is the poll payload for one participant's round.
type DashboardView struct {
	Registration  *models.Registration `json:"registration"`
	DisplayStatus string               `json:"display_status"`
	Partners      []string             `json:"partners,omitempty"`
	MeetingPoint  string               `json:"meeting_point,omitempty"`
	RoundStart    time.Time            `json:"round_start"`
	RoundEnd      time.Time            `json:"round_end"`
}

// Dashboard returns the registration with its display status derived from
// the clock. Callers run the status sweep first; this read itself never
// writes.
func (s *RegistrationService) Dashboard(participantID, roundID string) (*DashboardView, error) {
	round, reg, err := s.load(participantID, roundID)
	if err != nil {
		return nil, err
	}
	view := &DashboardView{
		Registration:  reg,
		DisplayStatus: DeriveDisplayStatus(reg, round, s.now()),
		Partners:      decodeNames(reg.PartnersJSON),
		MeetingPoint:  reg.MeetingPointName,
		RoundStart:    round.StartTime,
		RoundEnd:      round.EndTime(),
	}
	return view, nil
}

func (s *RegistrationService) load(participantID, roundID string) (*models.Round, *models.Registration, error) {
	round, err := s.repos.Rounds.Get(roundID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrRoundNotFound
		}
		return nil, nil, err
	}
	reg, err := s.repos.Registrations.GetByParticipantAndRound(participantID, roundID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return round, reg, nil
}

func decodeNames(raw string) []string {
	if raw == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		log.Printf("[REGISTRATION] bad partners payload: %v", err)
		return nil
	}
	return names
}
