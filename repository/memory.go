package repository

import (
	"sort"
	"sync"
	"time"

	"speed-networking-system/models"
)

// MemoryStore backs the repository interfaces with in-process maps. It is
// what the engine tests run against, so sweep/matching behavior can be
// exercised without a Postgres instance. A single mutex guards every
// operation, which also gives TryAcquire the same insert-if-absent atomicity
// the unique index gives the SQL implementation.
type MemoryStore struct {
	mu            sync.Mutex
	sessions      map[string]models.Session
	rounds        map[string]models.Round
	meetingPoints map[string][]models.MeetingPoint // keyed by round ID
	registrations map[string]models.Registration
	matches       map[string]models.Match
	locks         map[string]models.MatchingLock // keyed by sessionID+"/"+roundID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:      make(map[string]models.Session),
		rounds:        make(map[string]models.Round),
		meetingPoints: make(map[string][]models.MeetingPoint),
		registrations: make(map[string]models.Registration),
		matches:       make(map[string]models.Match),
		locks:         make(map[string]models.MatchingLock),
	}
}

// Repositories exposes the store through the same aggregate the GORM
// implementation uses, so services are wired identically in tests and prod.
func (m *MemoryStore) Repositories() *Repositories {
	return &Repositories{
		Sessions:      &memSessions{m},
		Rounds:        &memRounds{m},
		Registrations: &memRegistrations{m},
		Matches:       &memMatches{m},
		Locks:         &memLocks{m},
	}
}

type memSessions struct{ s *MemoryStore }

func (r *memSessions) Create(session *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions[session.ID] = *session
	return nil
}

func (r *memSessions) Update(session *models.Session) error {
	return r.Create(session)
}

func (r *memSessions) Get(id string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (r *memSessions) GetBySlug(slug string) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, session := range r.s.sessions {
		if session.Slug == slug {
			s := session
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

type memRounds struct{ s *MemoryStore }

func (r *memRounds) Create(round *models.Round) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *round
	stored.MeetingPoints = nil
	r.s.rounds[round.ID] = stored
	if len(round.MeetingPoints) > 0 {
		r.s.meetingPoints[round.ID] = append(r.s.meetingPoints[round.ID], round.MeetingPoints...)
	}
	return nil
}

func (r *memRounds) Update(round *models.Round) error {
	return r.Create(round)
}

func (r *memRounds) Get(id string) (*models.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	round, ok := r.s.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	points := append([]models.MeetingPoint(nil), r.s.meetingPoints[id]...)
	sort.SliceStable(points, func(i, j int) bool { return points[i].SortOrder < points[j].SortOrder })
	round.MeetingPoints = points
	return &round, nil
}

func (r *memRounds) ListRecentlyDue(now time.Time, lookback time.Duration) ([]models.Round, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cutoff := now.Add(-lookback)
	var due []models.Round
	for _, round := range r.s.rounds {
		if !round.StartTime.After(now) && !round.EndTime().Before(cutoff) {
			due = append(due, round)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].StartTime.Before(due[j].StartTime) })
	return due, nil
}

func (r *memRounds) AddMeetingPoints(points []models.MeetingPoint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range points {
		r.s.meetingPoints[p.RoundID] = append(r.s.meetingPoints[p.RoundID], p)
	}
	return nil
}

type memRegistrations struct{ s *MemoryStore }

func (r *memRegistrations) Create(reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now()
	}
	r.s.registrations[reg.ID] = *reg
	return nil
}

func (r *memRegistrations) Get(id string) (*models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &reg, nil
}

func (r *memRegistrations) GetByParticipantAndRound(participantID, roundID string) (*models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, reg := range r.s.registrations {
		if reg.ParticipantID == participantID && reg.RoundID == roundID {
			out := reg
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRegistrations) ListByRound(roundID string) ([]models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var regs []models.Registration
	for _, reg := range r.s.registrations {
		if reg.RoundID == roundID {
			regs = append(regs, reg)
		}
	}
	sort.SliceStable(regs, func(i, j int) bool {
		if regs[i].RegisteredAt.Equal(regs[j].RegisteredAt) {
			return regs[i].ID < regs[j].ID
		}
		return regs[i].RegisteredAt.Before(regs[j].RegisteredAt)
	})
	return regs, nil
}

func (r *memRegistrations) CountByRound(roundID string) (int64, error) {
	regs, _ := r.ListByRound(roundID)
	return int64(len(regs)), nil
}

func (r *memRegistrations) Update(reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.registrations[reg.ID] = *reg
	return nil
}

func (r *memRegistrations) UpdateStatusGuarded(id, fromStatus, toStatus, reason string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[id]
	if !ok || reg.Status != fromStatus {
		return false, nil
	}
	reg.Status = toStatus
	reg.StatusReason = reason
	t := now
	reg.LastStatusUpdate = &t
	r.s.registrations[id] = reg
	return true, nil
}

func (r *memRegistrations) Delete(id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.registrations, id)
	return nil
}

type memMatches struct{ s *MemoryStore }

func (r *memMatches) ListBySessionWithMembers(sessionID string) ([]models.Match, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matches []models.Match
	for _, m := range r.s.matches {
		if m.SessionID == sessionID {
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches, nil
}

func (r *memMatches) CountByRound(roundID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, m := range r.s.matches {
		if m.RoundID == roundID {
			count++
		}
	}
	return count, nil
}

func (r *memMatches) PersistAssignments(matches []models.Match, registrations []models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range matches {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		r.s.matches[m.ID] = m
	}
	for _, reg := range registrations {
		r.s.registrations[reg.ID] = reg
	}
	return nil
}

type memLocks struct{ s *MemoryStore }

func (r *memLocks) TryAcquire(lock *models.MatchingLock) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := lock.SessionID + "/" + lock.RoundID
	if _, exists := r.s.locks[key]; exists {
		return false, nil
	}
	if lock.AcquiredAt.IsZero() {
		lock.AcquiredAt = time.Now()
	}
	r.s.locks[key] = *lock
	return true, nil
}

func (r *memLocks) RecordSummary(lockID string, completedAt time.Time, matchCount, unmatchedCount int, solo bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for key, lock := range r.s.locks {
		if lock.ID == lockID {
			t := completedAt
			lock.CompletedAt = &t
			lock.MatchCount = matchCount
			lock.UnmatchedCount = unmatchedCount
			lock.HadSoloLeftover = solo
			r.s.locks[key] = lock
			return nil
		}
	}
	return ErrNotFound
}

func (r *memLocks) Get(sessionID, roundID string) (*models.MatchingLock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lock, ok := r.s.locks[sessionID+"/"+roundID]
	if !ok {
		return nil, ErrNotFound
	}
	return &lock, nil
}
