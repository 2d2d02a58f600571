package models

import (
	"time"
)

// MatchingLock records that matching has run for a round. Its existence is
// the sole source of truth for "has matching run": whichever caller wins the
// insert race owns the matching run, everyone else no-ops. The summary
// fields are written afterwards by the owner only.
//
// If the owner crashes between acquire and summary, the row stays with zero
// counts and CompletedAt unset. That window is accepted and documented; the
// group persistence inside the run is a single transaction, so a crash never
// leaves a half-written round.
type MatchingLock struct {
	ID        string `json:"id" gorm:"primaryKey"`
	SessionID string `json:"session_id" gorm:"not null;uniqueIndex:idx_session_round_lock"`
	RoundID   string `json:"round_id" gorm:"not null;uniqueIndex:idx_session_round_lock"`

	AcquiredAt  time.Time  `json:"acquired_at" gorm:"autoCreateTime"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	MatchCount      int  `json:"match_count" gorm:"default:0"`
	UnmatchedCount  int  `json:"unmatched_count" gorm:"default:0"`
	HadSoloLeftover bool `json:"had_solo_leftover" gorm:"default:false"`
}
