package models

import (
	"fmt"
	"time"
)

// Participant statuses. rejected, left and removed are terminal; a user may
// submit a fresh join request after reaching a terminal status.
const (
	ParticipantStatusPending  = "pending"
	ParticipantStatusAccepted = "accepted"
	ParticipantStatusActive   = "active"
	ParticipantStatusRejected = "rejected"
	ParticipantStatusLeft     = "left"
	ParticipantStatusRemoved  = "removed"
)

// Who ended a membership
const (
	LeftActionSelf   = "self"
	LeftActionOwner  = "owner"
	LeftActionSystem = "system"
)

// Participant is one user's membership record on one contribution. Records
// are never physically deleted; a terminal record stays as history and its
// ActiveKey is cleared so the unique index only guards live memberships.
type Participant struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	ContributionID uint          `gorm:"index;not null" json:"contribution_id"`
	Contribution   *Contribution `gorm:"foreignKey:ContributionID" json:"contribution,omitempty"`
	UserID         uint          `gorm:"index;not null" json:"user_id"`
	User           *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role           string        `gorm:"size:50" json:"role"`
	JoinReason     string        `gorm:"size:1000" json:"join_reason"`
	JoinResponse   string        `gorm:"size:1000" json:"join_response"`
	Status         string        `gorm:"size:20;index;not null" json:"status"`
	// ActiveKey is "<contribution_id>:<user_id>" while the record is
	// non-terminal and NULL afterwards. The unique index on it is what
	// guarantees at most one live membership per (contribution, user) even
	// under concurrent join requests.
	ActiveKey  *string    `gorm:"uniqueIndex;size:64" json:"-"`
	JoinedAt   *time.Time `json:"joined_at"`
	LeftReason string     `gorm:"size:1000" json:"left_reason"`
	LeftAction string     `gorm:"size:20" json:"left_action"` // self, owner, system
	LeftAt     *time.Time `json:"left_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Participant) TableName() string { return "contribution_participants" }

// IsTerminal reports whether no further transition is permitted.
func (p *Participant) IsTerminal() bool {
	switch p.Status {
	case ParticipantStatusRejected, ParticipantStatusLeft, ParticipantStatusRemoved:
		return true
	}
	return false
}

// IsActiveMember reports whether the user currently collaborates on the
// contribution.
func (p *Participant) IsActiveMember() bool {
	return p.Status == ParticipantStatusAccepted || p.Status == ParticipantStatusActive
}

// ParticipantActiveKey builds the uniqueness key for a live membership row.
func ParticipantActiveKey(contributionID, userID uint) string {
	return fmt.Sprintf("%d:%d", contributionID, userID)
}
