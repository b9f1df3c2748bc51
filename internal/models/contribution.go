package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Contribution types
const (
	ContributionTypeIdea     = "idea"
	ContributionTypeQuestion = "question"
	ContributionTypeProject  = "project"
)

// Contribution lifecycle statuses
const (
	ContributionStatusDraft     = "draft"
	ContributionStatusActive    = "active"
	ContributionStatusCompleted = "completed"
)

// ContentDoc is the content document of a contribution: a mapping of named
// fields (e.g. "problem", "solution", "references") to their values. Text
// fields hold strings; structured fields (references) hold string lists.
// Stored as a JSON text column.
type ContentDoc map[string]interface{}

func (d ContentDoc) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *ContentDoc) Scan(value interface{}) error {
	if value == nil {
		*d = ContentDoc{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported content document column type")
	}
	if len(data) == 0 {
		*d = ContentDoc{}
		return nil
	}
	return json.Unmarshal(data, d)
}

// Clone returns a deep-enough copy for single-field patching: the map itself
// is copied, field values are shared (they are replaced wholesale on patch).
func (d ContentDoc) Clone() ContentDoc {
	out := make(ContentDoc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Contribution represents a shareable unit of content (idea, question or
// project) owned by its creator. Content is mutated by the owner directly or
// through approved edit requests.
type Contribution struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	OwnerID            uint           `gorm:"index;not null" json:"owner_id"`
	Owner              *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Type               string         `gorm:"size:50;index;not null" json:"type"` // idea, question, project
	Title              string         `gorm:"size:300;not null" json:"title"`
	Content            ContentDoc     `gorm:"type:text" json:"content"`
	IsPublic           bool           `gorm:"default:true" json:"is_public"`
	AllowCollaboration bool           `gorm:"default:true" json:"allow_collaboration"`
	LikeCount          int64          `gorm:"default:0" json:"like_count"`
	ViewCount          int64          `gorm:"default:0" json:"view_count"`
	Status             string         `gorm:"size:50;default:draft" json:"status"` // draft, active, completed
	ShareToken         string         `gorm:"uniqueIndex;size:64" json:"share_token"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Contribution) TableName() string { return "contributions" }

// Comment represents a comment on a contribution. Top-level comments
// (ParentID == nil) feed the trending ranker's engagement counter.
type Comment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ContributionID uint           `gorm:"index;not null" json:"contribution_id"`
	AuthorID       uint           `gorm:"index;not null" json:"author_id"`
	Author         *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ParentID       *uint          `gorm:"index" json:"parent_id"`
	Body           string         `gorm:"type:text;not null" json:"body"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Comment) TableName() string { return "comments" }

// Like records one user's like on a contribution, at most once.
type Like struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ContributionID uint      `gorm:"uniqueIndex:idx_contribution_like;not null" json:"contribution_id"`
	UserID         uint      `gorm:"uniqueIndex:idx_contribution_like;not null" json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Like) TableName() string { return "likes" }
