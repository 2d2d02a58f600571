package models

import (
	"time"
)

// Round is one scheduled networking time slot within a session. The engine
// only ever reads round timing and matching config; rounds are edited by
// organizers before start and never mutated by the engine itself.
type Round struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	SessionID    string    `json:"session_id" gorm:"not null;index"`
	Name         string    `json:"name"`
	StartTime    time.Time `json:"start_time" gorm:"not null"`
	DurationMins int       `json:"duration_mins" gorm:"default:10"`

	// ConfirmationWindowMins is how long before start the attendance
	// confirmation prompt opens. CancelCutoffMins is the safety window:
	// voluntary unregister is rejected inside it.
	ConfirmationWindowMins int `json:"confirmation_window_mins" gorm:"default:60"`
	CancelCutoffMins       int `json:"cancel_cutoff_mins" gorm:"default:5"`

	GroupSize       int    `json:"group_size" gorm:"default:2"`
	MatchingMode    string `json:"matching_mode"` // across_teams, within_team, or empty
	MaxParticipants int    `json:"max_participants" gorm:"default:0"`
	MaxGroups       int    `json:"max_groups" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	MeetingPoints []MeetingPoint `json:"meeting_points,omitempty" gorm:"foreignKey:RoundID"`
}

// EndTime is start plus the configured duration.
func (r *Round) EndTime() time.Time {
	return r.StartTime.Add(time.Duration(r.DurationMins) * time.Minute)
}

// ConfirmationOpensAt is when registrations flip to waiting_confirmation.
func (r *Round) ConfirmationOpensAt() time.Time {
	return r.StartTime.Add(-time.Duration(r.ConfirmationWindowMins) * time.Minute)
}

// CancelDeadline is the last instant a voluntary unregister is accepted.
func (r *Round) CancelDeadline() time.Time {
	return r.StartTime.Add(-time.Duration(r.CancelCutoffMins) * time.Minute)
}

// MeetingPoint is a named physical or virtual spot participants are sent to.
// The check-in code is printed/displayed at the spot itself.
type MeetingPoint struct {
	ID          string `json:"id" gorm:"primaryKey"`
	RoundID     string `json:"round_id" gorm:"not null;index"`
	Name        string `json:"name" gorm:"not null"`
	CheckinCode string `json:"checkin_code"`
	SortOrder   int    `json:"sort_order" gorm:"column:sort_order;default:0"`
}
