package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/contribhub/backend/internal/models"
)

// Content fields that hold structured values instead of plain text. Their
// proposed values are parsed when the edit request is submitted, so review
// never has to guess at the payload shape.
var structuredFields = map[string]bool{
	"references": true,
}

// EditRequestService owns submission and review of proposed single-field
// content changes. A request is reviewed exactly once; approval patches the
// named field and leaves every other field untouched, all in one
// transaction with the notification record.
type EditRequestService struct {
	db           *gorm.DB
	notifier     *NotificationService
	participants *ParticipantService
}

func NewEditRequestService(db *gorm.DB, notifier *NotificationService, participants *ParticipantService) *EditRequestService {
	return &EditRequestService{db: db, notifier: notifier, participants: participants}
}

// parseFieldValue resolves the tagged value for a proposed change.
// Structured fields require a JSON string array; anything else is text.
func parseFieldValue(fieldKey, rawValue string) (models.FieldValue, error) {
	if !structuredFields[fieldKey] {
		return models.FieldValue{Kind: models.FieldValueText, Text: rawValue}, nil
	}

	var items []string
	if err := json.Unmarshal([]byte(rawValue), &items); err != nil {
		return models.FieldValue{}, fmt.Errorf("field %q requires a JSON array of strings: %w", fieldKey, err)
	}
	return models.FieldValue{Kind: models.FieldValueList, Items: items}, nil
}

// snapshotFieldValue captures the current content value of a field in
// tagged form, for the audit trail written at approval time.
func snapshotFieldValue(fieldKey string, doc models.ContentDoc) *models.FieldValue {
	raw, ok := doc[fieldKey]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case string:
		return &models.FieldValue{Kind: models.FieldValueText, Text: v}
	case []interface{}:
		// non-string entries are stringified so the snapshot is never partial
		items := make([]string, 0, len(v))
		for _, it := range v {
			if s, ok := it.(string); ok {
				items = append(items, s)
			} else {
				items = append(items, fmt.Sprint(it))
			}
		}
		return &models.FieldValue{Kind: models.FieldValueList, Items: items}
	default:
		return nil
	}
}

// Submit records a proposed change by an active collaborator and notifies
// the owner. Owners never submit; they edit directly.
func (s *EditRequestService) Submit(contributionID, userID uint, fieldKey, newValue, note string) (*models.EditRequest, error) {
	if fieldKey == "" {
		return nil, ErrConflict("field key is required")
	}

	var contribution models.Contribution
	if err := s.db.First(&contribution, contributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}

	participant, err := s.participants.ActiveParticipant(contributionID, userID)
	if err != nil {
		return nil, err
	}
	if !CanSubmitEdit(&contribution, participant, userID) {
		return nil, ErrAuthorization("only active collaborators may propose edits")
	}

	value, err := parseFieldValue(fieldKey, newValue)
	if err != nil {
		return nil, ErrConflict(err.Error())
	}

	request := models.EditRequest{
		ContributionID: contributionID,
		RequesterID:    userID,
		Changes: models.ChangeSet{
			FieldKey: fieldKey,
			NewValue: value,
		},
		EditorNote: note,
		Status:     models.EditRequestStatusPending,
	}

	notification := models.Notification{
		RecipientID:  contribution.OwnerID,
		SenderID:     &userID,
		Type:         models.NotificationTypeEditSubmitted,
		SourceType:   models.SourceTypeEditRequest,
		Message:      fmt.Sprintf("New edit proposed for %q (%s)", contribution.Title, fieldKey),
		RedirectPath: fmt.Sprintf("/contributions/%d/edit-requests", contributionID),
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		notification.SourceID = request.ID
		return s.notifier.recordTx(tx, &notification)
	})
	if txErr != nil {
		return nil, ErrStorage("failed to submit edit request", txErr)
	}

	s.notifier.dispatch(&notification)
	return &request, nil
}

// Approve applies a pending edit request: snapshots the old value, patches
// exactly the named content field, stamps the review and notifies the
// requester. The whole unit commits or rolls back together; the pending
// guard is a compare-and-swap, so a concurrent approve/reject loses with a
// StateError.
func (s *EditRequestService) Approve(editRequestID, reviewerID uint) (*models.EditRequest, error) {
	var request models.EditRequest
	if err := s.db.First(&request, editRequestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("edit request not found")
		}
		return nil, ErrStorage("failed to load edit request", err)
	}

	var contribution models.Contribution
	if err := s.db.First(&contribution, request.ContributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}

	if !CanReview(&contribution, reviewerID) {
		return nil, ErrAuthorization("only the owner may review edit requests")
	}

	now := time.Now()
	notification := models.Notification{
		RecipientID:  request.RequesterID,
		SenderID:     &reviewerID,
		Type:         models.NotificationTypeEditApproved,
		SourceType:   models.SourceTypeEditRequest,
		SourceID:     request.ID,
		Message:      fmt.Sprintf("Your edit to %q was approved", contribution.Title),
		RedirectPath: fmt.Sprintf("/contributions/%d", contribution.ID),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// CAS on status: only one concurrent review wins
		result := tx.Model(&models.EditRequest{}).
			Where("id = ? AND status = ?", editRequestID, models.EditRequestStatusPending).
			Updates(map[string]interface{}{
				"status":      models.EditRequestStatusApproved,
				"reviewer_id": reviewerID,
				"applied_at":  now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrState("edit request has already been reviewed")
		}

		var current models.Contribution
		if err := tx.First(&current, request.ContributionID).Error; err != nil {
			return err
		}

		changes := request.Changes
		if changes.OldValue == nil {
			changes.OldValue = snapshotFieldValue(changes.FieldKey, current.Content)
		}
		if err := tx.Model(&models.EditRequest{}).
			Where("id = ?", editRequestID).
			Update("changes", changes).Error; err != nil {
			return err
		}

		doc := current.Content.Clone()
		doc[changes.FieldKey] = changes.NewValue.Raw()
		if err := tx.Model(&current).Update("content", doc).Error; err != nil {
			return err
		}

		return s.notifier.recordTx(tx, &notification)
	})
	if err != nil {
		var we *WorkflowError
		if errors.As(err, &we) {
			return nil, we
		}
		return nil, ErrStorage("failed to approve edit request", err)
	}

	s.notifier.dispatch(&notification)

	if err := s.db.First(&request, editRequestID).Error; err != nil {
		return nil, ErrStorage("failed to reload edit request", err)
	}
	return &request, nil
}

// Reject resolves a pending edit request without touching the content.
func (s *EditRequestService) Reject(editRequestID, reviewerID uint, note string) (*models.EditRequest, error) {
	var request models.EditRequest
	if err := s.db.First(&request, editRequestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("edit request not found")
		}
		return nil, ErrStorage("failed to load edit request", err)
	}

	var contribution models.Contribution
	if err := s.db.First(&contribution, request.ContributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}

	if !CanReview(&contribution, reviewerID) {
		return nil, ErrAuthorization("only the owner may review edit requests")
	}

	notification := models.Notification{
		RecipientID:  request.RequesterID,
		SenderID:     &reviewerID,
		Type:         models.NotificationTypeEditRejected,
		SourceType:   models.SourceTypeEditRequest,
		SourceID:     request.ID,
		Message:      fmt.Sprintf("Your edit to %q was rejected", contribution.Title),
		RedirectPath: fmt.Sprintf("/contributions/%d", contribution.ID),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.EditRequest{}).
			Where("id = ? AND status = ?", editRequestID, models.EditRequestStatusPending).
			Updates(map[string]interface{}{
				"status":      models.EditRequestStatusRejected,
				"reviewer_id": reviewerID,
				"review_note": note,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrState("edit request has already been reviewed")
		}
		return s.notifier.recordTx(tx, &notification)
	})
	if err != nil {
		var we *WorkflowError
		if errors.As(err, &we) {
			return nil, we
		}
		return nil, ErrStorage("failed to reject edit request", err)
	}

	s.notifier.dispatch(&notification)

	if err := s.db.First(&request, editRequestID).Error; err != nil {
		return nil, ErrStorage("failed to reload edit request", err)
	}
	return &request, nil
}

type EditRequestListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	FieldKey string `form:"field_key"`
}

type EditRequestListResponse struct {
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Items    []models.EditRequest `json:"items"`
}

// ListForContribution returns a contribution's edit requests, newest first.
func (s *EditRequestService) ListForContribution(contributionID uint, req *EditRequestListRequest) (*EditRequestListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.EditRequest{}).Where("contribution_id = ?", contributionID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	// Field key lives inside the JSON changes column, which no portable SQL
	// predicate reaches across all three drivers. Load the contribution's
	// requests, filter, then paginate the filtered set so Total and the page
	// window both respect the filter.
	if req.FieldKey != "" {
		var all []models.EditRequest
		if err := query.Preload("Requester").Preload("Reviewer").
			Order("created_at DESC").Find(&all).Error; err != nil {
			return nil, ErrStorage("failed to list edit requests", err)
		}

		filtered := make([]models.EditRequest, 0, len(all))
		for _, item := range all {
			if item.Changes.FieldKey == req.FieldKey {
				filtered = append(filtered, item)
			}
		}

		start := (req.Page - 1) * req.PageSize
		if start > len(filtered) {
			start = len(filtered)
		}
		end := start + req.PageSize
		if end > len(filtered) {
			end = len(filtered)
		}

		return &EditRequestListResponse{
			Total:    int64(len(filtered)),
			Page:     req.Page,
			PageSize: req.PageSize,
			Items:    filtered[start:end],
		}, nil
	}

	var items []models.EditRequest
	var total int64
	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Requester").Preload("Reviewer").
		Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, ErrStorage("failed to list edit requests", err)
	}

	return &EditRequestListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// ListForUser returns a user's own submitted edit requests, newest first.
func (s *EditRequestService) ListForUser(userID uint, req *EditRequestListRequest) (*EditRequestListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var items []models.EditRequest
	var total int64

	query := s.db.Model(&models.EditRequest{}).Where("requester_id = ?", userID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Contribution").
		Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, ErrStorage("failed to list edit requests", err)
	}

	return &EditRequestListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// GetByID returns one edit request with its relations.
func (s *EditRequestService) GetByID(id uint) (*models.EditRequest, error) {
	var request models.EditRequest
	if err := s.db.Preload("Contribution").Preload("Requester").Preload("Reviewer").
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("edit request not found")
		}
		return nil, ErrStorage("failed to load edit request", err)
	}
	return &request, nil
}
