package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Edit request statuses. pending transitions exactly once, to approved or
// rejected.
const (
	EditRequestStatusPending  = "pending"
	EditRequestStatusApproved = "approved"
	EditRequestStatusRejected = "rejected"
)

// Field value kinds
const (
	FieldValueText = "text"
	FieldValueList = "list"
)

// FieldValue is a tagged content field value: plain text or a string list
// for structured fields such as "references". The kind is resolved when the
// edit request is submitted, never at review time.
type FieldValue struct {
	Kind  string   `json:"kind"`
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Raw returns the value in the shape stored in a content document.
func (v FieldValue) Raw() interface{} {
	if v.Kind == FieldValueList {
		items := make([]interface{}, len(v.Items))
		for i, it := range v.Items {
			items[i] = it
		}
		return items
	}
	return v.Text
}

// ChangeSet describes the single-field change an edit request proposes.
// OldValue is nil until the request is approved, at which point the current
// value is snapshotted for audit.
type ChangeSet struct {
	FieldKey string      `json:"field_key"`
	OldValue *FieldValue `json:"old_value,omitempty"`
	NewValue FieldValue  `json:"new_value"`
}

func (c ChangeSet) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *ChangeSet) Scan(value interface{}) error {
	if value == nil {
		*c = ChangeSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported change set column type")
	}
	if len(data) == 0 {
		*c = ChangeSet{}
		return nil
	}
	return json.Unmarshal(data, c)
}

// EditRequest is a proposed change to exactly one named field of a
// contribution's content document, submitted by a collaborator and reviewed
// once by the owner.
type EditRequest struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ContributionID uint           `gorm:"index;not null" json:"contribution_id"`
	Contribution   *Contribution  `gorm:"foreignKey:ContributionID" json:"contribution,omitempty"`
	RequesterID    uint           `gorm:"index;not null" json:"requester_id"`
	Requester      *User          `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Changes        ChangeSet      `gorm:"type:text" json:"changes"`
	EditorNote     string         `gorm:"size:1000" json:"editor_note"`
	Status         string         `gorm:"size:20;index;default:pending" json:"status"`
	ReviewerID     *uint          `json:"reviewer_id"`
	Reviewer       *User          `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	ReviewNote     string         `gorm:"size:1000" json:"review_note"`
	AppliedAt      *time.Time     `json:"applied_at"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (EditRequest) TableName() string { return "contribution_edit_requests" }
