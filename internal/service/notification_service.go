package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/postgrad-supervision-api/internal/dto"
	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
)

type notificationStore interface {
	ListByUser(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

// NotificationService exposes a recipient's in-app notifications. Every
// operation is scoped to the recipient; notifications are only created by
// workflow side effects.
type NotificationService struct {
	repo   notificationStore
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// List returns the actor's notifications newest first with the unread count.
func (s *NotificationService) List(ctx context.Context, userID string, filter models.NotificationFilter) (*dto.NotificationListResponse, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	items, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &dto.NotificationListResponse{Notifications: items, UnreadCount: unread}, nil
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Internal(err, "failed to update notification")
	}
	return nil
}

// MarkAllRead flags every unread notification of the actor as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (*dto.BulkResult, error) {
	affected, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to update notifications")
	}
	return &dto.BulkResult{Affected: affected}, nil
}

// Delete removes one notification.
func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Internal(err, "failed to delete notification")
	}
	return nil
}

// Clear removes all of the actor's notifications.
func (s *NotificationService) Clear(ctx context.Context, userID string) (*dto.BulkResult, error) {
	affected, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to clear notifications")
	}
	s.logger.Debug("notifications cleared", zap.String("user_id", userID), zap.Int64("count", affected))
	return &dto.BulkResult{Affected: affected}, nil
}
