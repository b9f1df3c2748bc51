package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/contribhub/backend/internal/models"
	"github.com/contribhub/backend/pkg/logger"
)

// NotificationService records notifications and drives their asynchronous
// delivery. Recording happens inside the caller's transaction (outbox row);
// delivery to live clients is best-effort and never fails the workflow that
// produced the notification.
type NotificationService struct {
	db    *gorm.DB
	queue TaskQueue
	hub   *NotificationHub
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// WithDelivery attaches the delivery queue and live hub. Without them the
// service only records; tests run in that mode.
func (s *NotificationService) WithDelivery(queue TaskQueue, hub *NotificationHub) *NotificationService {
	s.queue = queue
	s.hub = hub
	return s
}

// recordTx writes the notification row using the workflow's transaction so
// that the row and the state transition commit or roll back together.
func (s *NotificationService) recordTx(tx *gorm.DB, n *models.Notification) error {
	return tx.Create(n).Error
}

// dispatch queues delivery for a committed notification. Enqueue failures
// are logged and swallowed: the record is durable and a later retry or the
// recipient's inbox poll will surface it.
func (s *NotificationService) dispatch(n *models.Notification) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(&DeliveryTask{NotificationID: n.ID}); err != nil {
		logger.Warnf("[Notification] Failed to enqueue delivery for notification %d: %v", n.ID, err)
	}
}

// ProcessDeliveryTask pushes one committed notification to connected clients
// and marks the delivery attempt. Used as the queue/worker processor.
func (s *NotificationService) ProcessDeliveryTask(ctx context.Context, task *DeliveryTask) error {
	var n models.Notification
	if err := s.db.WithContext(ctx).First(&n, task.NotificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Row gone (retention cleanup); nothing to deliver
			return nil
		}
		return err
	}

	if s.hub != nil {
		s.hub.Publish(NotificationEvent{
			ID:           n.ID,
			RecipientID:  n.RecipientID,
			Type:         n.Type,
			Message:      n.Message,
			RedirectPath: n.RedirectPath,
			CreatedAt:    n.CreatedAt,
		})
	}

	now := time.Now()
	return s.db.WithContext(ctx).Model(&n).Updates(map[string]interface{}{
		"delivered":    true,
		"delivered_at": now,
	}).Error
}

type NotificationListRequest struct {
	Page       int  `form:"page" binding:"omitempty,min=1"`
	PageSize   int  `form:"page_size" binding:"omitempty,min=1,max=100"`
	UnreadOnly bool `form:"unread_only"`
}

type NotificationListResponse struct {
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Items    []models.Notification `json:"items"`
}

// List returns the recipient's notifications, newest first
func (s *NotificationService) List(userID uint, req *NotificationListRequest) (*NotificationListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var items []models.Notification
	var total int64

	query := s.db.Model(&models.Notification{}).Where("recipient_id = ?", userID)
	if req.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Sender").Offset(offset).Limit(req.PageSize).
		Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, ErrStorage("failed to list notifications", err)
	}

	return &NotificationListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// UnreadCount returns the number of unread notifications for a user
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, ErrStorage("failed to count notifications", err)
	}
	return count, nil
}

// MarkRead flags one notification as read; only the recipient may do so.
func (s *NotificationService) MarkRead(notificationID, userID uint) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.First(&n, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("notification not found")
		}
		return nil, ErrStorage("failed to load notification", err)
	}

	if n.RecipientID != userID {
		return nil, ErrAuthorization("not the notification recipient")
	}

	if !n.IsRead {
		now := time.Now()
		if err := s.db.Model(&n).Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
			return nil, ErrStorage("failed to mark notification read", err)
		}
	}
	return &n, nil
}

// MarkAllRead flags every unread notification of a user as read
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return 0, ErrStorage("failed to mark notifications read", result.Error)
	}
	return result.RowsAffected, nil
}

// CleanupOldNotifications deletes read notifications older than the given
// number of days. Returns the number of deleted records.
func (s *NotificationService) CleanupOldNotifications(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
