package models

import (
	"time"
)

// Matching modes supported per round. Empty string means teams are ignored.
const (
	MatchingModeAcrossTeams = "across_teams"
	MatchingModeWithinTeam  = "within_team"
)

// Session represents one speed-networking event. A session owns rounds;
// participants register per round, not per session.
type Session struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex"`
	Description string `json:"description"`
	Status      string `json:"status" gorm:"default:'draft'"` // draft, published, archived
	OrganizerID string `json:"organizer_id" gorm:"index"`

	// Feature toggles. When disabled the corresponding scoring bonus is 0.
	TeamsEnabled  bool `json:"teams_enabled" gorm:"default:false"`
	TopicsEnabled bool `json:"topics_enabled" gorm:"default:false"`

	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Relationships
	Rounds []Round `json:"rounds,omitempty" gorm:"foreignKey:SessionID"`
}
