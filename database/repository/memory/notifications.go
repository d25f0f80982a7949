package memory

import (
	"context"
	"fmt"
	"time"

	"bloodsync/database"
	notificationRepo "bloodsync/database/repository/notification"
	"bloodsync/models"
)

type notificationStore struct{ s *Store }

// Notifications returns the notifications collection.
func (s *Store) Notifications() notificationRepo.NotificationRepository {
	return notificationStore{s}
}

func (n notificationStore) Create(ctx context.Context, notif *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer n.s.lockWrite(ctx)()

	if _, ok := n.s.notifications[notif.ID]; ok {
		return fmt.Errorf("failed to create notification: %w", database.ErrDuplicateKey)
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}
	n.s.notifications[notif.ID] = *notif
	return nil
}

func (n notificationStore) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.s.mu.RLock()
	defer n.s.mu.RUnlock()

	out := collect(n.s.notifications,
		func(notif models.Notification) bool {
			return notif.UserID == userID && (!unreadOnly || !notif.IsRead)
		},
		func(a, b models.Notification) int { return b.CreatedAt.Compare(a.CreatedAt) },
		func(notif models.Notification) string { return notif.ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (n notificationStore) MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	defer n.s.lockWrite(ctx)()

	notif, ok := n.s.notifications[id]
	if !ok || notif.UserID != userID {
		return false, fmt.Errorf("notification %s: %w", id, database.ErrNotFound)
	}
	if notif.IsRead {
		return false, nil
	}
	notif.IsRead = true
	notif.ReadAt = &at
	n.s.notifications[id] = notif
	return true, nil
}

func (n notificationStore) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	defer n.s.lockWrite(ctx)()

	var changed int64
	for id, notif := range n.s.notifications {
		if notif.UserID != userID || notif.IsRead {
			continue
		}
		notif.IsRead = true
		notif.ReadAt = &at
		n.s.notifications[id] = notif
		changed++
	}
	return changed, nil
}

func (n notificationStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	unread, err := n.ListByUser(ctx, userID, true, 0)
	return int64(len(unread)), err
}
