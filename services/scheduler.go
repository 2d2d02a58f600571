// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRoundScheduler runs a best-effort per-minute pass over recently due
// rounds: sweep first, then a matching trigger for anything past its start.
// Correctness never depends on this job — the sweep is idempotent and the
// trigger races through the same lock as every client-initiated call, so
// this is just one more concurrent caller that happens to be punctual.
func (s *MatchingService) StartRoundScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := s.now()
			rounds, err := s.repos.Rounds.ListRecentlyDue(now, 2*time.Hour)
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}

			for _, round := range rounds {
				if _, err := s.sweep.Run(round.ID); err != nil {
					log.Printf("[Scheduler] sweep failed for round %s: %v", round.ID, err)
					continue
				}
				result, err := s.TriggerMatching(round.SessionID, round.ID)
				if err != nil {
					log.Printf("[Scheduler] matching trigger failed for round %s: %v", round.ID, err)
					continue
				}
				if !result.AlreadyCompleted {
					log.Printf("✅ Auto-matched round %s: %d matches", round.ID, result.MatchCount)
				}
			}
		}),
	)
}
