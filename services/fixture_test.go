package services

import (
	"sync"
	"testing"
	"time"

	"speed-networking-system/models"
	"speed-networking-system/repository"

	"github.com/stretchr/testify/require"
)

// roundStart is the fixed wall-clock instant every test round starts at.
var roundStart = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	repos    *repository.Repositories
	clock    *testClock
	sessions *SessionService
	regs     *RegistrationService
	sweep    *SweepService
	matching *MatchingService
	session  *models.Session
	round    *models.Round
}

type roundOpt func(*CreateRoundInput)

func withGroupSize(g int) roundOpt {
	return func(in *CreateRoundInput) { in.GroupSize = g }
}

func withMatchingMode(mode string) roundOpt {
	return func(in *CreateRoundInput) { in.MatchingMode = mode }
}

// newFixture builds the engine against the in-memory store with a
// controllable clock, plus one session and one round starting at roundStart
// with a 5 minute confirmation window and meeting points Lobby and Cafe.
func newFixture(t *testing.T, opts ...roundOpt) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	repos := store.Repositories()
	clock := &testClock{t: roundStart.Add(-2 * time.Hour)}

	sessions := NewSessionService(repos)
	sessions.now = clock.Now
	sweep := NewSweepService(repos)
	sweep.now = clock.Now
	regs := NewRegistrationService(repos, NopNotifier{})
	regs.now = clock.Now
	matching := NewMatchingService(repos, sweep, NopNotifier{})
	matching.now = clock.Now
	matching.SeedRandom(1)

	session, err := sessions.CreateSession(CreateSessionInput{
		Name:          "Spring Mixer",
		TeamsEnabled:  true,
		TopicsEnabled: true,
	})
	require.NoError(t, err)

	in := CreateRoundInput{
		Name:                   "Round 1",
		StartTime:              roundStart,
		DurationMins:           10,
		ConfirmationWindowMins: 5,
		CancelCutoffMins:       5,
		GroupSize:              2,
		MeetingPoints:          []string{"Lobby", "Cafe"},
	}
	for _, opt := range opts {
		opt(&in)
	}
	round, err := sessions.CreateRound(session.ID, in)
	require.NoError(t, err)

	return &fixture{
		repos:    repos,
		clock:    clock,
		sessions: sessions,
		regs:     regs,
		sweep:    sweep,
		matching: matching,
		session:  session,
		round:    round,
	}
}

func (f *fixture) register(t *testing.T, participantID string, opts ...func(*RegisterInput)) *models.Registration {
	t.Helper()
	in := RegisterInput{
		RoundID:         f.round.ID,
		ParticipantID:   participantID,
		ParticipantName: participantID,
	}
	for _, opt := range opts {
		opt(&in)
	}
	reg, err := f.regs.Register(in)
	require.NoError(t, err)
	// Keep registration order distinct so ordering tie-breaks are stable.
	f.clock.Advance(time.Second)
	return reg
}

func (f *fixture) confirm(t *testing.T, participantID string) *models.Registration {
	t.Helper()
	reg, err := f.regs.ConfirmAttendance(participantID, f.round.ID)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	return reg
}

func (f *fixture) registration(t *testing.T, participantID string) *models.Registration {
	t.Helper()
	reg, err := f.repos.Registrations.GetByParticipantAndRound(participantID, f.round.ID)
	require.NoError(t, err)
	return reg
}
