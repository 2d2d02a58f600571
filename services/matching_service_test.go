package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"speed-networking-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerBeforeStartRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.matching.TriggerMatching(f.session.ID, f.round.ID)
	assert.ErrorIs(t, err, ErrRoundNotStarted)
}

func TestGroupSizeInvariant(t *testing.T) {
	// 7 confirmed, group size 2: 3 pairs + 1 leftover recorded as solo.
	f := newFixture(t)
	for i := 0; i < 7; i++ {
		id := fmt.Sprintf("p%d", i)
		f.register(t, id)
		f.confirm(t, id)
	}

	f.clock.Set(roundStart)
	result, err := f.matching.TriggerMatching(f.session.ID, f.round.ID)
	require.NoError(t, err)

	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, 3, result.MatchCount)
	assert.Equal(t, 1, result.UnmatchedCount)
	assert.True(t, result.HadSoloLeftover)

	matches, err := f.repos.Matches.ListBySessionWithMembers(f.session.ID)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.Len(t, m.Members, 2)
	}

	lock, err := f.repos.Locks.Get(f.session.ID, f.round.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, lock.MatchCount)
	assert.Equal(t, 1, lock.UnmatchedCount)
	assert.True(t, lock.HadSoloLeftover)
	assert.NotNil(t, lock.CompletedAt)

	// The leftover is dropped to unconfirmed with an explicit reason.
	unmatched := 0
	regs, _ := f.repos.Registrations.ListByRound(f.round.ID)
	for _, reg := range regs {
		if reg.Status == models.StatusUnconfirmed {
			unmatched++
			assert.Equal(t, models.ReasonInsufficientGroup, reg.StatusReason)
		}
	}
	assert.Equal(t, 1, unmatched)
}

func TestBuildGroupsRemainder(t *testing.T) {
	flat := func(a, b *models.Registration) int { return 0 }
	pool := make([]models.Registration, 11)
	for i := range pool {
		pool[i] = models.Registration{ID: fmt.Sprintf("r%d", i), ParticipantID: fmt.Sprintf("p%d", i)}
	}

	groups, leftover := buildGroups(pool, 3, flat)
	assert.Len(t, groups, 3)
	for _, g := range groups {
		assert.Len(t, g, 3)
	}
	assert.Len(t, leftover, 2)

	// With a flat scorer, grouping follows confirmation order exactly.
	assert.Equal(t, "p0", groups[0][0].ParticipantID)
	assert.Equal(t, "p1", groups[0][1].ParticipantID)
	assert.Equal(t, "p2", groups[0][2].ParticipantID)
	assert.Equal(t, "p9", leftover[0].ParticipantID)
}

func TestExactlyOnceMatching(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		f.register(t, id)
		f.confirm(t, id)
	}
	f.clock.Set(roundStart)

	const callers = 8
	results := make([]*MatchingResult, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.matching.TriggerMatching(f.session.ID, f.round.ID)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		if !results[i].AlreadyCompleted {
			winners++
			assert.Equal(t, 2, results[i].MatchCount)
		}
	}
	assert.Equal(t, 1, winners)

	count, err := f.repos.Matches.CountByRound(f.round.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestNovelPairingPreferred(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		f.register(t, id)
		f.confirm(t, id)
	}

	// Alice and Bob already met in an earlier round of this session.
	prior := models.Match{
		ID:        "prior-match",
		SessionID: f.session.ID,
		RoundID:   "prior-round",
		CreatedAt: roundStart.Add(-24 * time.Hour),
		Members: []models.MatchMember{
			{ID: "m1", MatchID: "prior-match", ParticipantID: "alice"},
			{ID: "m2", MatchID: "prior-match", ParticipantID: "bob"},
		},
	}
	require.NoError(t, f.repos.Matches.PersistAssignments([]models.Match{prior}, nil))

	f.clock.Set(roundStart)
	result, err := f.matching.TriggerMatching(f.session.ID, f.round.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchCount)

	alice := f.registration(t, "alice")
	bob := f.registration(t, "bob")
	assert.NotEqual(t, alice.MatchID, bob.MatchID, "previously met pair must not be re-paired when a novel pairing exists")
}

func TestScorerWeights(t *testing.T) {
	session := &models.Session{ID: "s", TeamsEnabled: true, TopicsEnabled: true}
	history := map[string]int{pairKey("a", "b"): 2}

	a := &models.Registration{ID: "ra", ParticipantID: "a", Team: "red", TopicsJSON: `["Go","AI"]`}
	b := &models.Registration{ID: "rb", ParticipantID: "b", Team: "blue", TopicsJSON: `["ai"]`}
	c := &models.Registration{ID: "rc", ParticipantID: "c", Team: "red", TopicsJSON: `["design"]`}

	across := scorer(session, &models.Round{MatchingMode: models.MatchingModeAcrossTeams}, history)
	// two prior meetings, cross-team bonus, shared topic (case-folded "AI"/"ai")
	assert.Equal(t, -60+20+10, across(a, b))
	// same team, no shared topic, never met
	assert.Equal(t, 0, across(a, c))

	within := scorer(session, &models.Round{MatchingMode: models.MatchingModeWithinTeam}, history)
	assert.Equal(t, -60+10, within(a, b))
	assert.Equal(t, 20, within(a, c))

	// Teams and topics disabled: only history counts.
	plain := scorer(&models.Session{ID: "s"}, &models.Round{MatchingMode: models.MatchingModeAcrossTeams}, history)
	assert.Equal(t, -60, plain(a, b))
	assert.Equal(t, 0, plain(a, c))
}

func TestEndToEndRound(t *testing.T) {
	f := newFixture(t)
	participants := []string{"alice", "bob", "carol", "dave"}
	for _, id := range participants {
		f.register(t, id)
		f.confirm(t, id)
	}

	f.clock.Set(roundStart)
	result, err := f.matching.TriggerMatching(f.session.ID, f.round.ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, 2, result.MatchCount)
	assert.Zero(t, result.UnmatchedCount)

	pointNames := map[string]bool{"Lobby": true, "Cafe": true}
	for _, id := range participants {
		reg := f.registration(t, id)
		assert.Equal(t, models.StatusMatched, reg.Status)
		assert.NotEmpty(t, reg.MatchID)
		assert.True(t, pointNames[reg.MeetingPointName], "meeting point %q not configured", reg.MeetingPointName)
		assert.NotNil(t, reg.MatchedAt)

		view, err := f.regs.Dashboard(id, f.round.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusMatched, view.DisplayStatus)
		assert.Len(t, view.Partners, 1)
	}

	// Re-triggering is a no-op that reports the recorded summary.
	again, err := f.matching.TriggerMatching(f.session.ID, f.round.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	assert.Equal(t, 2, again.MatchCount)

	count, err := f.repos.Matches.CountByRound(f.round.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestNoShowsExcludedFromMatching(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")
	f.register(t, "bob")
	f.register(t, "ghost") // never confirms
	f.confirm(t, "alice")
	f.confirm(t, "bob")

	f.clock.Set(roundStart.Add(time.Minute))
	result, err := f.matching.TriggerMatching(f.session.ID, f.round.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchCount)
	assert.Zero(t, result.UnmatchedCount)

	ghost := f.registration(t, "ghost")
	assert.Equal(t, models.StatusUnconfirmed, ghost.Status)
	assert.Equal(t, models.ReasonNoConfirmation, ghost.StatusReason)
	assert.Empty(t, ghost.MatchID)
}

func TestInsufficientPoolRecordsEmptyRun(t *testing.T) {
	f := newFixture(t, withGroupSize(4))
	f.register(t, "alice")
	f.register(t, "bob")
	f.confirm(t, "alice")
	f.confirm(t, "bob")

	f.clock.Set(roundStart)
	result, err := f.matching.TriggerMatching(f.session.ID, f.round.ID)
	require.NoError(t, err)
	assert.Zero(t, result.MatchCount)
	assert.Equal(t, 2, result.UnmatchedCount)
	assert.False(t, result.HadSoloLeftover)

	// The lock exists, so nothing re-runs later.
	again, err := f.matching.TriggerMatching(f.session.ID, f.round.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
}

func TestWithinTeamModeGroupsTeammates(t *testing.T) {
	f := newFixture(t, withMatchingMode(models.MatchingModeWithinTeam))
	team := map[string]string{"alice": "red", "bob": "blue", "carol": "red", "dave": "blue"}
	for _, id := range []string{"alice", "bob", "carol", "dave"} {
		id := id
		f.register(t, id, func(in *RegisterInput) { in.Team = team[id] })
		f.confirm(t, id)
	}

	f.clock.Set(roundStart)
	_, err := f.matching.TriggerMatching(f.session.ID, f.round.ID)
	require.NoError(t, err)

	alice := f.registration(t, "alice")
	carol := f.registration(t, "carol")
	assert.Equal(t, alice.MatchID, carol.MatchID, "within-team mode should pair teammates")
}
