package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/contribhub/backend/internal/models"
)

// ParticipantService owns the lifecycle of a user's membership in a
// contribution's collaboration: join request, owner decision, leaving and
// removal. Every transition commits atomically with its notification record.
type ParticipantService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewParticipantService(db *gorm.DB, notifier *NotificationService) *ParticipantService {
	return &ParticipantService{db: db, notifier: notifier}
}

// isDuplicateKey detects unique-index violations across the supported
// drivers (sqlite, mysql, postgres).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}

// RequestJoin creates a pending membership record and notifies the owner.
// The unique index on active_key is the final arbiter under concurrent
// joins: the losing insert surfaces as a ConflictError.
func (s *ParticipantService) RequestJoin(contributionID, userID uint, reason string) (*models.Participant, error) {
	var contribution models.Contribution
	if err := s.db.First(&contribution, contributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}

	if !contribution.AllowCollaboration {
		return nil, ErrConflict("contribution does not accept collaborators")
	}
	if IsOwner(&contribution, userID) {
		return nil, ErrConflict("owner cannot join their own contribution")
	}

	// Fast-path check; the unique index below is the backstop for races
	var existing int64
	s.db.Model(&models.Participant{}).
		Where("contribution_id = ? AND user_id = ? AND status IN ?",
			contributionID, userID,
			[]string{models.ParticipantStatusPending, models.ParticipantStatusAccepted, models.ParticipantStatusActive}).
		Count(&existing)
	if existing > 0 {
		return nil, ErrConflict("a join request or membership already exists")
	}

	activeKey := models.ParticipantActiveKey(contributionID, userID)
	participant := models.Participant{
		ContributionID: contributionID,
		UserID:         userID,
		JoinReason:     reason,
		Status:         models.ParticipantStatusPending,
		ActiveKey:      &activeKey,
	}

	notification := models.Notification{
		RecipientID:  contribution.OwnerID,
		SenderID:     &userID,
		Type:         models.NotificationTypeJoinRequest,
		SourceType:   models.SourceTypeParticipant,
		Message:      fmt.Sprintf("New request to join %q", contribution.Title),
		RedirectPath: fmt.Sprintf("/contributions/%d/participants", contributionID),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}
		notification.SourceID = participant.ID
		return s.notifier.recordTx(tx, &notification)
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict("a join request or membership already exists")
		}
		return nil, ErrStorage("failed to create join request", err)
	}

	s.notifier.dispatch(&notification)
	return &participant, nil
}

// Decide resolves a pending join request. Only the contribution owner may
// decide, and only once: the status guard is applied as a compare-and-swap
// so concurrent decisions collapse to one winner.
func (s *ParticipantService) Decide(participantID, deciderID uint, outcome, response string) (*models.Participant, error) {
	if outcome != models.ParticipantStatusAccepted && outcome != models.ParticipantStatusRejected {
		return nil, ErrConflict("outcome must be accepted or rejected")
	}

	var participant models.Participant
	if err := s.db.First(&participant, participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("join request not found")
		}
		return nil, ErrStorage("failed to load join request", err)
	}

	var contribution models.Contribution
	if err := s.db.First(&contribution, participant.ContributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}

	if !CanReview(&contribution, deciderID) {
		return nil, ErrAuthorization("only the owner may decide join requests")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":        outcome,
		"join_response": response,
	}
	notificationType := models.NotificationTypeJoinAccepted
	message := fmt.Sprintf("Your request to join %q was accepted", contribution.Title)
	if outcome == models.ParticipantStatusAccepted {
		updates["joined_at"] = now
	} else {
		// Terminal: release the live-membership key so a fresh join request
		// stays possible
		updates["active_key"] = nil
		notificationType = models.NotificationTypeJoinRejected
		message = fmt.Sprintf("Your request to join %q was rejected", contribution.Title)
	}

	notification := models.Notification{
		RecipientID:  participant.UserID,
		SenderID:     &deciderID,
		Type:         notificationType,
		SourceType:   models.SourceTypeParticipant,
		SourceID:     participant.ID,
		Message:      message,
		RedirectPath: fmt.Sprintf("/contributions/%d", contribution.ID),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Participant{}).
			Where("id = ? AND status = ?", participantID, models.ParticipantStatusPending).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrState("join request is not pending")
		}
		return s.notifier.recordTx(tx, &notification)
	})
	if err != nil {
		var we *WorkflowError
		if errors.As(err, &we) {
			return nil, we
		}
		return nil, ErrStorage("failed to decide join request", err)
	}

	s.notifier.dispatch(&notification)

	if err := s.db.First(&participant, participantID).Error; err != nil {
		return nil, ErrStorage("failed to reload participant", err)
	}
	return &participant, nil
}

// Leave ends the caller's own membership. Requires a live (accepted or
// active) record; notifies the owner.
func (s *ParticipantService) Leave(contributionID, userID uint, reason string) (*models.Participant, error) {
	var contribution models.Contribution
	if err := s.db.First(&contribution, contributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}

	var participant models.Participant
	if err := s.db.Where("contribution_id = ? AND user_id = ? AND status IN ?",
		contributionID, userID,
		[]string{models.ParticipantStatusAccepted, models.ParticipantStatusActive}).
		First(&participant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrState("no active membership to leave")
		}
		return nil, ErrStorage("failed to load membership", err)
	}

	now := time.Now()
	notification := models.Notification{
		RecipientID:  contribution.OwnerID,
		SenderID:     &userID,
		Type:         models.NotificationTypeMemberLeft,
		SourceType:   models.SourceTypeParticipant,
		SourceID:     participant.ID,
		Message:      fmt.Sprintf("A collaborator left %q", contribution.Title),
		RedirectPath: fmt.Sprintf("/contributions/%d/participants", contributionID),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Participant{}).
			Where("id = ? AND status IN ?", participant.ID,
				[]string{models.ParticipantStatusAccepted, models.ParticipantStatusActive}).
			Updates(map[string]interface{}{
				"status":      models.ParticipantStatusLeft,
				"left_reason": reason,
				"left_action": models.LeftActionSelf,
				"left_at":     now,
				"active_key":  nil,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrState("no active membership to leave")
		}
		return s.notifier.recordTx(tx, &notification)
	})
	if err != nil {
		var we *WorkflowError
		if errors.As(err, &we) {
			return nil, we
		}
		return nil, ErrStorage("failed to leave contribution", err)
	}

	s.notifier.dispatch(&notification)

	if err := s.db.First(&participant, participant.ID).Error; err != nil {
		return nil, ErrStorage("failed to reload participant", err)
	}
	return &participant, nil
}

// Remove is the owner forcing a member out. The record moves to the
// dedicated removed terminal status; the removed member is notified.
func (s *ParticipantService) Remove(participantID, ownerID uint, reason string) (*models.Participant, error) {
	var participant models.Participant
	if err := s.db.First(&participant, participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("participant not found")
		}
		return nil, ErrStorage("failed to load participant", err)
	}

	var contribution models.Contribution
	if err := s.db.First(&contribution, participant.ContributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}

	if !CanReview(&contribution, ownerID) {
		return nil, ErrAuthorization("only the owner may remove collaborators")
	}

	now := time.Now()
	notification := models.Notification{
		RecipientID:  participant.UserID,
		SenderID:     &ownerID,
		Type:         models.NotificationTypeMemberRemoved,
		SourceType:   models.SourceTypeParticipant,
		SourceID:     participant.ID,
		Message:      fmt.Sprintf("You were removed from %q", contribution.Title),
		RedirectPath: fmt.Sprintf("/contributions/%d", contribution.ID),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Participant{}).
			Where("id = ? AND status IN ?", participantID,
				[]string{models.ParticipantStatusAccepted, models.ParticipantStatusActive}).
			Updates(map[string]interface{}{
				"status":      models.ParticipantStatusRemoved,
				"left_reason": reason,
				"left_action": models.LeftActionOwner,
				"left_at":     now,
				"active_key":  nil,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrState("participant is not an active member")
		}
		return s.notifier.recordTx(tx, &notification)
	})
	if err != nil {
		var we *WorkflowError
		if errors.As(err, &we) {
			return nil, we
		}
		return nil, ErrStorage("failed to remove participant", err)
	}

	s.notifier.dispatch(&notification)

	if err := s.db.First(&participant, participantID).Error; err != nil {
		return nil, ErrStorage("failed to reload participant", err)
	}
	return &participant, nil
}

// ActiveParticipant loads the live membership snapshot for (contribution,
// user), or nil when none exists. Shared with the edit request workflow.
func (s *ParticipantService) ActiveParticipant(contributionID, userID uint) (*models.Participant, error) {
	var participant models.Participant
	err := s.db.Where("contribution_id = ? AND user_id = ? AND status IN ?",
		contributionID, userID,
		[]string{models.ParticipantStatusAccepted, models.ParticipantStatusActive}).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ErrStorage("failed to load membership", err)
	}
	return &participant, nil
}

type ParticipantListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status"`
}

type ParticipantListResponse struct {
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Items    []models.Participant `json:"items"`
}

// ListForContribution returns the membership history of a contribution,
// newest first.
func (s *ParticipantService) ListForContribution(contributionID uint, req *ParticipantListRequest) (*ParticipantListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var items []models.Participant
	var total int64

	query := s.db.Model(&models.Participant{}).Where("contribution_id = ?", contributionID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("User").Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, ErrStorage("failed to list participants", err)
	}

	return &ParticipantListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// ListForUser returns a user's memberships across contributions, newest
// first.
func (s *ParticipantService) ListForUser(userID uint, req *ParticipantListRequest) (*ParticipantListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var items []models.Participant
	var total int64

	query := s.db.Model(&models.Participant{}).Where("user_id = ?", userID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Contribution").Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, ErrStorage("failed to list memberships", err)
	}

	return &ParticipantListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}
