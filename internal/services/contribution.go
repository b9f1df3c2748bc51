package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contribhub/backend/internal/models"
)

// ContributionService owns the lifecycle of contributions and their
// engagement counters. Content edits by non-owners go through the edit
// request workflow instead.
type ContributionService struct {
	db *gorm.DB
}

func NewContributionService(db *gorm.DB) *ContributionService {
	return &ContributionService{db: db}
}

var validContributionTypes = map[string]bool{
	models.ContributionTypeIdea:     true,
	models.ContributionTypeQuestion: true,
	models.ContributionTypeProject:  true,
}

type CreateContributionRequest struct {
	Type               string            `json:"type" binding:"required,oneof=idea question project"`
	Title              string            `json:"title" binding:"required,max=300"`
	Content            models.ContentDoc `json:"content"`
	IsPublic           *bool             `json:"is_public"`
	AllowCollaboration *bool             `json:"allow_collaboration"`
}

// Create records a new contribution in draft status with a fresh share token.
func (s *ContributionService) Create(ownerID uint, req *CreateContributionRequest) (*models.Contribution, error) {
	if !validContributionTypes[req.Type] {
		return nil, ErrConflict("unknown contribution type")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrConflict("title is required")
	}

	contribution := models.Contribution{
		OwnerID:            ownerID,
		Type:               req.Type,
		Title:              req.Title,
		Content:            req.Content,
		IsPublic:           true,
		AllowCollaboration: true,
		Status:             models.ContributionStatusDraft,
		ShareToken:         uuid.New().String(),
	}
	if req.Content == nil {
		contribution.Content = models.ContentDoc{}
	}
	if req.IsPublic != nil {
		contribution.IsPublic = *req.IsPublic
	}
	if req.AllowCollaboration != nil {
		contribution.AllowCollaboration = *req.AllowCollaboration
	}

	if err := s.db.Create(&contribution).Error; err != nil {
		return nil, ErrStorage("failed to create contribution", err)
	}
	return &contribution, nil
}

type UpdateContributionRequest struct {
	Title              *string           `json:"title" binding:"omitempty,max=300"`
	Content            models.ContentDoc `json:"content"`
	IsPublic           *bool             `json:"is_public"`
	AllowCollaboration *bool             `json:"allow_collaboration"`
	Status             *string           `json:"status" binding:"omitempty,oneof=draft active completed"`
}

// Update lets the owner change their own contribution directly.
func (s *ContributionService) Update(contributionID, userID uint, req *UpdateContributionRequest) (*models.Contribution, error) {
	contribution, err := s.loadOwned(contributionID, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, ErrConflict("title is required")
		}
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = req.Content
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	if req.AllowCollaboration != nil {
		updates["allow_collaboration"] = *req.AllowCollaboration
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return contribution, nil
	}

	if err := s.db.Model(contribution).Updates(updates).Error; err != nil {
		return nil, ErrStorage("failed to update contribution", err)
	}

	if err := s.db.First(contribution, contributionID).Error; err != nil {
		return nil, ErrStorage("failed to reload contribution", err)
	}
	return contribution, nil
}

// Delete soft-deletes an owned contribution.
func (s *ContributionService) Delete(contributionID, userID uint) error {
	contribution, err := s.loadOwned(contributionID, userID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(contribution).Error; err != nil {
		return ErrStorage("failed to delete contribution", err)
	}
	return nil
}

func (s *ContributionService) loadOwned(contributionID, userID uint) (*models.Contribution, error) {
	var contribution models.Contribution
	if err := s.db.First(&contribution, contributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}
	if !IsOwner(&contribution, userID) {
		return nil, ErrAuthorization("only the owner may modify a contribution")
	}
	return &contribution, nil
}

// GetByID returns one contribution. Private contributions are visible to the
// owner and to anyone holding an active membership, not the general public.
func (s *ContributionService) GetByID(contributionID, viewerID uint) (*models.Contribution, error) {
	var contribution models.Contribution
	if err := s.db.Preload("Owner").First(&contribution, contributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}

	if !contribution.IsPublic && !IsOwner(&contribution, viewerID) {
		var count int64
		s.db.Model(&models.Participant{}).
			Where("contribution_id = ? AND user_id = ? AND status IN ?",
				contributionID, viewerID,
				[]string{models.ParticipantStatusAccepted, models.ParticipantStatusActive}).
			Count(&count)
		if count == 0 {
			return nil, ErrNotFound("contribution not found")
		}
	}
	return &contribution, nil
}

// GetByShareToken resolves an unlisted share link.
func (s *ContributionService) GetByShareToken(token string) (*models.Contribution, error) {
	var contribution models.Contribution
	if err := s.db.Preload("Owner").Where("share_token = ?", token).First(&contribution).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}
	return &contribution, nil
}

// RecordView bumps the view counter atomically.
func (s *ContributionService) RecordView(contributionID uint) error {
	result := s.db.Model(&models.Contribution{}).
		Where("id = ?", contributionID).
		Update("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		return ErrStorage("failed to record view", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound("contribution not found")
	}
	return nil
}

// Like records one like per user per contribution and bumps the counter.
// Liking twice is a ConflictError.
func (s *ContributionService) Like(contributionID, userID uint) error {
	var contribution models.Contribution
	if err := s.db.First(&contribution, contributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound("contribution not found")
		}
		return ErrStorage("failed to load contribution", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		like := models.Like{ContributionID: contributionID, UserID: userID}
		if err := tx.Create(&like).Error; err != nil {
			return err
		}
		return tx.Model(&models.Contribution{}).
			Where("id = ?", contributionID).
			Update("like_count", gorm.Expr("like_count + 1")).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict("already liked")
		}
		return ErrStorage("failed to record like", err)
	}
	return nil
}

// Unlike removes a like and decrements the counter. Unliking something never
// liked is a ConflictError.
func (s *ContributionService) Unlike(contributionID, userID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("contribution_id = ? AND user_id = ?", contributionID, userID).
			Delete(&models.Like{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict("not liked")
		}
		return tx.Model(&models.Contribution{}).
			Where("id = ? AND like_count > 0", contributionID).
			Update("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		var we *WorkflowError
		if errors.As(err, &we) {
			return we
		}
		return ErrStorage("failed to remove like", err)
	}
	return nil
}

type ContributionListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Type     string `form:"type" binding:"omitempty,oneof=idea question project"`
	Status   string `form:"status" binding:"omitempty,oneof=draft active completed"`
	OwnerID  uint   `form:"owner_id"`
	Keyword  string `form:"keyword"`
}

type ContributionListResponse struct {
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Items    []models.Contribution `json:"items"`
}

// List returns public contributions, newest first, with optional filters.
func (s *ContributionService) List(req *ContributionListRequest) (*ContributionListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Contribution{}).Where("is_public = ?", true)
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.OwnerID != 0 {
		query = query.Where("owner_id = ?", req.OwnerID)
	}
	if req.Keyword != "" {
		query = query.Where("title LIKE ?", "%"+req.Keyword+"%")
	}

	var total int64
	query.Count(&total)

	var items []models.Contribution
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Owner").
		Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, ErrStorage("failed to list contributions", err)
	}

	return &ContributionListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// ListOwn returns the caller's own contributions regardless of visibility.
func (s *ContributionService) ListOwn(ownerID uint, req *ContributionListRequest) (*ContributionListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Contribution{}).Where("owner_id = ?", ownerID)
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	query.Count(&total)

	var items []models.Contribution
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, ErrStorage("failed to list contributions", err)
	}

	return &ContributionListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}
