package models

import (
	"time"
)

// Match is a group of registrations sharing one meeting point for one round.
// Created exactly once per group by the matching engine, immutable after.
type Match struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	SessionID        string    `json:"session_id" gorm:"not null;index"`
	RoundID          string    `json:"round_id" gorm:"not null;index"`
	MeetingPointID   string    `json:"meeting_point_id"`
	MeetingPointName string    `json:"meeting_point_name"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`

	Members []MatchMember `json:"members,omitempty" gorm:"foreignKey:MatchID"`
}

// MatchMember links a participant into a match. Kept as its own table so
// meeting history (pair co-occurrence counts) can be derived by scanning a
// session's past matches.
type MatchMember struct {
	ID              string `json:"id" gorm:"primaryKey"`
	MatchID         string `json:"match_id" gorm:"not null;index"`
	ParticipantID   string `json:"participant_id" gorm:"not null;index"`
	ParticipantName string `json:"participant_name"`
}
