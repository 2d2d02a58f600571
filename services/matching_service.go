package services

import (
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"speed-networking-system/models"
	"speed-networking-system/repository"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Scoring weights for one unordered pair of confirmed participants. Pairs
// who have met before are penalized hard enough that any bonus combination
// cannot outweigh a single prior meeting.
const (
	meetingPenalty = 30
	teamBonus      = 20
	topicBonus     = 10
)

// MatchingService groups the confirmed pool of a round and assigns meeting
// points. It runs exactly once per round: concurrent triggers race on the
// matching lock's insert-if-absent, and every loser returns
// AlreadyCompleted without side effects.
type MatchingService struct {
	repos    *repository.Repositories
	sweep    *SweepService
	notifier Notifier
	now      func() time.Time

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

func NewMatchingService(repos *repository.Repositories, sweep *SweepService, notifier Notifier) *MatchingService {
	return &MatchingService{
		repos:    repos,
		sweep:    sweep,
		notifier: notifier,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedRandom fixes the meeting-point randomization. With a fixed seed, the
// same confirmed pool and history always produce the same assignment.
func (s *MatchingService) SeedRandom(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

type MatchingResult struct {
	AlreadyCompleted bool `json:"already_completed"`
	MatchCount       int  `json:"match_count"`
	UnmatchedCount   int  `json:"unmatched_count"`
	HadSoloLeftover  bool `json:"had_solo_leftover"`
}

// TriggerMatching is the round-start entry point. Any client may call it,
// any number of times, from any instance; only the caller that wins the
// lock insert does real work.
func (s *MatchingService) TriggerMatching(sessionID, roundID string) (*MatchingResult, error) {
	round, err := s.repos.Rounds.Get(roundID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if round.SessionID != sessionID {
		return nil, ErrRoundNotFound
	}
	if s.now().Before(round.StartTime) {
		return nil, ErrRoundNotStarted
	}
	session, err := s.repos.Sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	// No-show pre-pass. Idempotent, so running it before the lock race is
	// fine even when several triggers arrive at once.
	if _, err := s.sweep.Run(roundID); err != nil {
		return nil, err
	}

	lock := &models.MatchingLock{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		RoundID:    roundID,
		AcquiredAt: s.now(),
	}
	acquired, err := s.repos.Locks.TryAcquire(lock)
	if err != nil {
		return nil, err
	}
	if !acquired {
		// Matching already completed or in progress. Not an error: the
		// caller simply lost the race and must not retry.
		result := &MatchingResult{AlreadyCompleted: true}
		if existing, err := s.repos.Locks.Get(sessionID, roundID); err == nil {
			result.MatchCount = existing.MatchCount
			result.UnmatchedCount = existing.UnmatchedCount
			result.HadSoloLeftover = existing.HadSoloLeftover
		}
		return result, nil
	}

	result, err := s.runMatching(session, round, lock)
	if err != nil {
		log.Printf("[MATCHING] ❌ round %s: matching run failed: %v", roundID, err)
		return nil, err
	}
	log.Printf("[MATCHING] ✅ round %s: %d matches, %d unmatched", roundID, result.MatchCount, result.UnmatchedCount)
	return result, nil
}

func (s *MatchingService) runMatching(session *models.Session, round *models.Round, lock *models.MatchingLock) (*MatchingResult, error) {
	regs, err := s.repos.Registrations.ListByRound(round.ID)
	if err != nil {
		return nil, err
	}

	pool := confirmedPool(regs)
	history, err := s.meetingCounts(session.ID)
	if err != nil {
		return nil, err
	}

	groupSize := round.GroupSize
	if groupSize < 2 {
		groupSize = 2
	}
	groups, leftover := buildGroups(pool, groupSize, scorer(session, round, history))
	if round.MaxGroups > 0 && len(groups) > round.MaxGroups {
		for _, g := range groups[round.MaxGroups:] {
			leftover = append(leftover, g...)
		}
		groups = groups[:round.MaxGroups]
	}

	now := s.now()
	var matches []models.Match
	var updated []models.Registration

	for _, group := range groups {
		match := models.Match{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			RoundID:   round.ID,
			CreatedAt: now,
		}
		if point := s.pickMeetingPoint(round); point != nil {
			match.MeetingPointID = point.ID
			match.MeetingPointName = point.Name
		}
		for _, member := range group {
			match.Members = append(match.Members, models.MatchMember{
				ID:              uuid.NewString(),
				MatchID:         match.ID,
				ParticipantID:   member.ParticipantID,
				ParticipantName: member.ParticipantName,
			})
		}
		matches = append(matches, match)

		for _, member := range group {
			reg := member
			reg.Status = models.StatusMatched
			reg.StatusReason = ""
			reg.MatchID = match.ID
			reg.MeetingPointID = match.MeetingPointID
			reg.MeetingPointName = match.MeetingPointName
			reg.MatchedAt = &now
			reg.LastStatusUpdate = &now
			reg.PartnersJSON = encodePartners(group, member.ParticipantID)
			updated = append(updated, reg)
		}
	}

	for _, reg := range leftover {
		r := reg
		r.Status = models.StatusUnconfirmed
		r.StatusReason = models.ReasonInsufficientGroup
		r.LastStatusUpdate = &now
		updated = append(updated, r)
	}

	if err := s.repos.Matches.PersistAssignments(matches, updated); err != nil {
		return nil, err
	}

	result := &MatchingResult{
		MatchCount:      len(matches),
		UnmatchedCount:  len(leftover),
		HadSoloLeftover: len(leftover) == 1,
	}
	if err := s.repos.Locks.RecordSummary(lock.ID, now, result.MatchCount, result.UnmatchedCount, result.HadSoloLeftover); err != nil {
		// Matches are already durable; the summary is bookkeeping only.
		log.Printf("[MATCHING] failed to record lock summary for round %s: %v", round.ID, err)
	}

	for _, reg := range updated {
		if reg.Status == models.StatusMatched {
			s.notifier.MatchAssigned(reg, *round)
		}
	}
	return result, nil
}

// confirmedPool filters to confirmed rows and orders them by confirmation
// time. That order is the deterministic tie-break for the whole run.
func confirmedPool(regs []models.Registration) []models.Registration {
	var pool []models.Registration
	for _, reg := range regs {
		if reg.Status == models.StatusConfirmed {
			pool = append(pool, reg)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i], pool[j]
		switch {
		case a.ConfirmedAt == nil:
			return false
		case b.ConfirmedAt == nil:
			return true
		case !a.ConfirmedAt.Equal(*b.ConfirmedAt):
			return a.ConfirmedAt.Before(*b.ConfirmedAt)
		}
		return a.ID < b.ID
	})
	return pool
}

// meetingCounts derives the pair co-occurrence counts from every match ever
// created in the session. Append-only input, read-only here.
func (s *MatchingService) meetingCounts(sessionID string) (map[string]int, error) {
	matches, err := s.repos.Matches.ListBySessionWithMembers(sessionID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, match := range matches {
		for i := 0; i < len(match.Members); i++ {
			for j := i + 1; j < len(match.Members); j++ {
				counts[pairKey(match.Members[i].ParticipantID, match.Members[j].ParticipantID)]++
			}
		}
	}
	return counts, nil
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// scorer builds the pairwise compatibility function: previous meetings push
// a pair down, a team pairing that fits the round's matching mode and a
// shared topic push it up.
func scorer(session *models.Session, round *models.Round, history map[string]int) func(a, b *models.Registration) int {
	fold := cases.Fold()
	topicSets := make(map[string]map[string]bool)
	topicsOf := func(reg *models.Registration) map[string]bool {
		if set, ok := topicSets[reg.ID]; ok {
			return set
		}
		set := make(map[string]bool)
		if session.TopicsEnabled && reg.TopicsJSON != "" {
			var topics []string
			if err := json.Unmarshal([]byte(reg.TopicsJSON), &topics); err == nil {
				for _, t := range topics {
					set[fold.String(t)] = true
				}
			}
		}
		topicSets[reg.ID] = set
		return set
	}

	return func(a, b *models.Registration) int {
		score := -meetingPenalty * history[pairKey(a.ParticipantID, b.ParticipantID)]

		if session.TeamsEnabled && a.Team != "" && b.Team != "" {
			switch round.MatchingMode {
			case models.MatchingModeAcrossTeams:
				if a.Team != b.Team {
					score += teamBonus
				}
			case models.MatchingModeWithinTeam:
				if a.Team == b.Team {
					score += teamBonus
				}
			}
		}

		aTopics, bTopics := topicsOf(a), topicsOf(b)
		for t := range aTopics {
			if bTopics[t] {
				score += topicBonus
				break
			}
		}
		return score
	}
}

// buildGroups runs the greedy extraction: seed each group with the earliest
// still-ungrouped confirmer, then repeatedly add the candidate maximizing
// the summed pairwise score against the forming group. Ties go to the
// earlier confirmer, so the output is fully deterministic for a fixed pool
// and history. The remainder smaller than groupSize is returned unmatched.
func buildGroups(pool []models.Registration, groupSize int, score func(a, b *models.Registration) int) ([][]models.Registration, []models.Registration) {
	var groups [][]models.Registration
	remaining := append([]models.Registration(nil), pool...)

	for len(remaining) >= groupSize {
		group := []models.Registration{remaining[0]}
		remaining = remaining[1:]

		for len(group) < groupSize {
			bestIdx := 0
			bestScore := groupScore(&remaining[0], group, score)
			for i := 1; i < len(remaining); i++ {
				if sc := groupScore(&remaining[i], group, score); sc > bestScore {
					bestScore, bestIdx = sc, i
				}
			}
			group = append(group, remaining[bestIdx])
			remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		}
		groups = append(groups, group)
	}
	return groups, remaining
}

func groupScore(candidate *models.Registration, group []models.Registration, score func(a, b *models.Registration) int) int {
	total := 0
	for i := range group {
		total += score(candidate, &group[i])
	}
	return total
}

// pickMeetingPoint draws uniformly from the round's configured points.
// Groups may share a point when the venue has fewer spots than groups.
func (s *MatchingService) pickMeetingPoint(round *models.Round) *models.MeetingPoint {
	if len(round.MeetingPoints) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &round.MeetingPoints[s.rng.Intn(len(round.MeetingPoints))]
}

func encodePartners(group []models.Registration, selfID string) string {
	var names []string
	for _, member := range group {
		if member.ParticipantID != selfID {
			names = append(names, member.ParticipantName)
		}
	}
	b, _ := json.Marshal(names)
	return string(b)
}
