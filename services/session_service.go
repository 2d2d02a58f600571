package services

import (
	"crypto/rand"
	"errors"
	"time"

	"speed-networking-system/models"
	"speed-networking-system/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type SessionService struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewSessionService(repos *repository.Repositories) *SessionService {
	return &SessionService{repos: repos, now: time.Now}
}

type CreateSessionInput struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	OrganizerID   string `json:"organizer_id"`
	TeamsEnabled  bool   `json:"teams_enabled"`
	TopicsEnabled bool   `json:"topics_enabled"`
}

func (s *SessionService) CreateSession(in CreateSessionInput) (*models.Session, error) {
	if in.Name == "" {
		return nil, errors.New("name is required")
	}

	sessionSlug := slug.Make(in.Name)
	if _, err := s.repos.Sessions.GetBySlug(sessionSlug); err == nil {
		// Slug taken by another session; disambiguate with a short suffix.
		sessionSlug = sessionSlug + "-" + uuid.NewString()[:8]
	}

	session := &models.Session{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Slug:          sessionSlug,
		Description:   in.Description,
		Status:        "draft",
		OrganizerID:   in.OrganizerID,
		TeamsEnabled:  in.TeamsEnabled,
		TopicsEnabled: in.TopicsEnabled,
	}
	if err := s.repos.Sessions.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) PublishSession(id string) (*models.Session, error) {
	session, err := s.repos.Sessions.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status != "published" {
		now := s.now()
		session.Status = "published"
		session.PublishedAt = &now
		if err := s.repos.Sessions.Update(session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (s *SessionService) GetSession(id string) (*models.Session, error) {
	session, err := s.repos.Sessions.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionService) GetSessionBySlug(sessionSlug string) (*models.Session, error) {
	session, err := s.repos.Sessions.GetBySlug(sessionSlug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

type CreateRoundInput struct {
	Name                   string    `json:"name"`
	StartTime              time.Time `json:"start_time"`
	DurationMins           int       `json:"duration_mins"`
	ConfirmationWindowMins int       `json:"confirmation_window_mins"`
	CancelCutoffMins       int       `json:"cancel_cutoff_mins"`
	GroupSize              int       `json:"group_size"`
	MatchingMode           string    `json:"matching_mode"`
	MaxParticipants        int       `json:"max_participants"`
	MaxGroups              int       `json:"max_groups"`
	MeetingPoints          []string  `json:"meeting_points"`
}

func (s *SessionService) CreateRound(sessionID string, in CreateRoundInput) (*models.Round, error) {
	if _, err := s.repos.Sessions.Get(sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if in.StartTime.IsZero() {
		return nil, errors.New("start_time is required")
	}
	if in.GroupSize < 2 {
		in.GroupSize = 2
	}
	if in.DurationMins <= 0 {
		in.DurationMins = 10
	}
	if in.ConfirmationWindowMins <= 0 {
		in.ConfirmationWindowMins = 60
	}
	if in.CancelCutoffMins <= 0 {
		in.CancelCutoffMins = 5
	}
	switch in.MatchingMode {
	case "", models.MatchingModeAcrossTeams, models.MatchingModeWithinTeam:
	default:
		return nil, errors.New("matching_mode must be across_teams, within_team or empty")
	}

	round := &models.Round{
		ID:                     uuid.NewString(),
		SessionID:              sessionID,
		Name:                   in.Name,
		StartTime:              in.StartTime,
		DurationMins:           in.DurationMins,
		ConfirmationWindowMins: in.ConfirmationWindowMins,
		CancelCutoffMins:       in.CancelCutoffMins,
		GroupSize:              in.GroupSize,
		MatchingMode:           in.MatchingMode,
		MaxParticipants:        in.MaxParticipants,
		MaxGroups:              in.MaxGroups,
	}
	for i, name := range in.MeetingPoints {
		round.MeetingPoints = append(round.MeetingPoints, models.MeetingPoint{
			ID:          uuid.NewString(),
			RoundID:     round.ID,
			Name:        name,
			CheckinCode: newCheckinCode(),
			SortOrder:   i,
		})
	}
	if err := s.repos.Rounds.Create(round); err != nil {
		return nil, err
	}
	return round, nil
}

func (s *SessionService) GetRound(id string) (*models.Round, error) {
	round, err := s.repos.Rounds.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return round, nil
}

// Ambiguous characters (0/O, 1/I) are left out since codes are read off
// physical signage.
const checkinAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

func newCheckinCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()[:6]
	}
	for i, b := range buf {
		buf[i] = checkinAlphabet[int(b)%len(checkinAlphabet)]
	}
	return string(buf)
}
