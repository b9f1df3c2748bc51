package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/contribhub/backend/internal/models"
)

// CommentService owns comments on contributions. One level of nesting:
// replies point at a top-level comment, never at another reply.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

type CreateCommentRequest struct {
	Body     string `json:"body" binding:"required,max=5000"`
	ParentID *uint  `json:"parent_id"`
}

// Create adds a comment or a reply to a contribution.
func (s *CommentService) Create(contributionID, authorID uint, req *CreateCommentRequest) (*models.Comment, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, ErrConflict("comment body is required")
	}

	var contribution models.Contribution
	if err := s.db.First(&contribution, contributionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("contribution not found")
		}
		return nil, ErrStorage("failed to load contribution", err)
	}

	if req.ParentID != nil {
		var parent models.Comment
		if err := s.db.First(&parent, *req.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound("parent comment not found")
			}
			return nil, ErrStorage("failed to load parent comment", err)
		}
		if parent.ContributionID != contributionID {
			return nil, ErrConflict("parent comment belongs to another contribution")
		}
		if parent.ParentID != nil {
			return nil, ErrConflict("replies cannot be nested")
		}
	}

	comment := models.Comment{
		ContributionID: contributionID,
		AuthorID:       authorID,
		ParentID:       req.ParentID,
		Body:           req.Body,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, ErrStorage("failed to create comment", err)
	}
	return &comment, nil
}

// Delete removes a comment. Allowed for the comment's author and for the
// contribution owner.
func (s *CommentService) Delete(commentID, userID uint) error {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound("comment not found")
		}
		return ErrStorage("failed to load comment", err)
	}

	if comment.AuthorID != userID {
		var contribution models.Contribution
		if err := s.db.First(&contribution, comment.ContributionID).Error; err != nil {
			return ErrStorage("failed to load contribution", err)
		}
		if !IsOwner(&contribution, userID) {
			return ErrAuthorization("only the author or the owner may delete a comment")
		}
	}

	if err := s.db.Delete(&comment).Error; err != nil {
		return ErrStorage("failed to delete comment", err)
	}
	return nil
}

type CommentListRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type CommentListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Comment `json:"items"`
}

// List returns a contribution's top-level comments, newest first, each with
// its replies attached oldest first.
func (s *CommentService) List(contributionID uint, req *CommentListRequest) (*CommentListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.Model(&models.Comment{}).
		Where("contribution_id = ? AND parent_id IS NULL", contributionID)

	var total int64
	query.Count(&total)

	var topLevel []models.Comment
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Author").
		Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&topLevel).Error; err != nil {
		return nil, ErrStorage("failed to list comments", err)
	}

	items := make([]models.Comment, 0, len(topLevel))
	for _, top := range topLevel {
		items = append(items, top)
		var replies []models.Comment
		if err := s.db.Preload("Author").
			Where("parent_id = ?", top.ID).
			Order("created_at ASC").Find(&replies).Error; err != nil {
			return nil, ErrStorage("failed to list replies", err)
		}
		items = append(items, replies...)
	}

	return &CommentListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// CountTopLevel returns the number of top-level comments, the figure the
// trending ranker consumes.
func (s *CommentService) CountTopLevel(contributionID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Comment{}).
		Where("contribution_id = ? AND parent_id IS NULL", contributionID).
		Count(&count).Error; err != nil {
		return 0, ErrStorage("failed to count comments", err)
	}
	return count, nil
}
