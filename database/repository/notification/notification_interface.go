package notificationRepo

import (
	"context"
	"time"

	"bloodsync/models"
)

// NotificationRepository stores in-app inbox entries.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// ListByUser returns the recipient's notifications, newest first. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	// MarkRead flips isRead for one notification owned by userID. It returns
	// database.ErrNotFound when no such notification belongs to userID, and
	// reports false when it was already read.
	MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error)
	// MarkAllRead flips every unread notification of userID and returns how many changed.
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}
