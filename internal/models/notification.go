package models

import "time"

// Notification types
const (
	NotificationTypeJoinRequest   = "join_request"
	NotificationTypeJoinAccepted  = "join_accepted"
	NotificationTypeJoinRejected  = "join_rejected"
	NotificationTypeMemberLeft    = "member_left"
	NotificationTypeMemberRemoved = "member_removed"
	NotificationTypeEditSubmitted = "edit_submitted"
	NotificationTypeEditApproved  = "edit_approved"
	NotificationTypeEditRejected  = "edit_rejected"
)

// Source entity types referenced by notifications
const (
	SourceTypeContribution = "contribution"
	SourceTypeParticipant  = "participant"
	SourceTypeEditRequest  = "edit_request"
)

// Notification is a delivery record of one event to one recipient. The row
// is written in the same transaction as the state transition that caused it;
// Delivered tracks the asynchronous best-effort push afterwards. Only the
// read flag mutates after creation.
type Notification struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RecipientID  uint       `gorm:"index;not null" json:"recipient_id"`
	Recipient    *User      `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	SenderID     *uint      `json:"sender_id"`
	Sender       *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type         string     `gorm:"size:50;index;not null" json:"type"`
	SourceType   string     `gorm:"size:50" json:"source_type"` // contribution, participant, edit_request
	SourceID     uint       `json:"source_id"`
	Message      string     `gorm:"size:1000" json:"message"`
	RedirectPath string     `gorm:"size:500" json:"redirect_path"`
	IsRead       bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt       *time.Time `json:"read_at"`
	Delivered    bool       `gorm:"default:false" json:"delivered"`
	DeliveredAt  *time.Time `json:"delivered_at"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
