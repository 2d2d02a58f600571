package models

import (
	"time"
)

// Stored registration statuses. waiting_confirmation and waiting_match are
// display-only: they are derived from round timing on every read and never
// written to the database (see services.DeriveDisplayStatus).
const (
	StatusRegistered  = "registered"
	StatusConfirmed   = "confirmed"
	StatusUnconfirmed = "unconfirmed" // terminal for the round, never matched
	StatusMatched     = "matched"
	StatusWalking     = "walking"
	StatusCheckedIn   = "checked_in"
	StatusMet         = "met"
	StatusCompleted   = "completed"

	// Derived, read-side only.
	StatusWaitingConfirmation = "waiting_confirmation"
	StatusWaitingMatch        = "waiting_match"
)

// Unconfirmed reasons recorded by the sweep and the matching engine.
const (
	ReasonNoConfirmation    = "did not confirm attendance before round start"
	ReasonInsufficientGroup = "insufficient participants for a final group"
)

// Registration tracks one participant's intent and progress for one round.
// There is at most one registration per (participant, round).
type Registration struct {
	ID              string `json:"id" gorm:"primaryKey"`
	SessionID       string `json:"session_id" gorm:"not null;index"`
	RoundID         string `json:"round_id" gorm:"not null;index:idx_round_participant,unique"`
	ParticipantID   string `json:"participant_id" gorm:"not null;index:idx_round_participant,unique"`
	ParticipantName string `json:"participant_name"` // denormalized from profile service

	Status       string `json:"status" gorm:"default:'registered'"`
	StatusReason string `json:"status_reason,omitempty"`

	Team       string `json:"team,omitempty"`
	TopicsJSON string `json:"-" gorm:"column:topics"` // JSON array of selected topic tags

	// Populated by the matching engine, in the same transaction as the match row.
	MatchID          string `json:"match_id,omitempty" gorm:"index"`
	MeetingPointID   string `json:"meeting_point_id,omitempty"`
	MeetingPointName string `json:"meeting_point_name,omitempty"`
	PartnersJSON     string `json:"-" gorm:"column:partners"` // JSON array of partner display names

	RegisteredAt     time.Time  `json:"registered_at" gorm:"autoCreateTime"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	MatchedAt        *time.Time `json:"matched_at,omitempty"`
	CheckedInAt      *time.Time `json:"checked_in_at,omitempty"`
	MetAt            *time.Time `json:"met_at,omitempty"`
	LastStatusUpdate *time.Time `json:"last_status_update,omitempty"`
}
