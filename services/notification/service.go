package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloodsync/database"
	notificationRepo "bloodsync/database/repository/notification"
	userRepo "bloodsync/database/repository/user"
	"bloodsync/models"
	"bloodsync/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultInboxLimit = 50

var (
	ErrNotificationNotFound = utils.NewAppError(utils.CodeNotFound, "notification not found")
	ErrInvalidPayload       = utils.NewAppError(utils.CodeValidation, "invalid delivery payload")
)

// NotificationService records in-app notifications and fans them out to
// external channels once the surrounding workflow has committed.
type NotificationService interface {
	// Notify persists n in the caller's transaction. A failure must abort it.
	Notify(ctx context.Context, n *models.Notification) error
	// Dispatch publishes committed notifications to live sessions and external channels.
	Dispatch(ctx context.Context, notifications ...models.Notification) DispatchReport
	// Deliver makes one attempt at a queued external delivery.
	Deliver(ctx context.Context, payload models.DeliveryPayload) error

	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) (bool, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type DefaultNotificationService struct {
	Repo       notificationRepo.NotificationRepository
	Users      userRepo.UserRepository
	Dispatcher *Dispatcher
	Hub        *Hub
	Logger     *zap.Logger

	now func() time.Time
}

func NewNotificationService(repo notificationRepo.NotificationRepository, users userRepo.UserRepository, dispatcher *Dispatcher, hub *Hub, logger *zap.Logger) *DefaultNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{
		Repo:       repo,
		Users:      users,
		Dispatcher: dispatcher,
		Hub:        hub,
		Logger:     logger,
		now:        time.Now,
	}
}

func (s *DefaultNotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.UserID == "" || n.Message == "" {
		return ErrInvalidPayload.Withf("notification needs a recipient and a message")
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	n.IsRead = false
	n.ReadAt = nil

	if err := s.Repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to record %s notification: %w", n.Type, err)
	}
	inAppCreated.WithLabelValues(string(n.Type)).Inc()
	return nil
}

func (s *DefaultNotificationService) Dispatch(ctx context.Context, notifications ...models.Notification) DispatchReport {
	var report DispatchReport
	for _, n := range notifications {
		if s.Hub != nil {
			s.Hub.Publish(n)
		}
		if s.Dispatcher == nil {
			continue
		}

		person, err := s.Users.GetByID(ctx, n.UserID)
		if err != nil {
			// Without a profile there is no address to send to; the inbox entry stands.
			s.Logger.Info("skipping external delivery",
				zap.String("userId", n.UserID),
				zap.String("notificationId", n.ID),
				zap.Error(err))
			continue
		}
		report.merge(s.Dispatcher.Deliver(ctx, recipientFor(person), person.Preferences, n))
	}
	return report
}

func (s *DefaultNotificationService) Deliver(ctx context.Context, payload models.DeliveryPayload) error {
	if payload.UserID == "" || payload.Channel == "" {
		return ErrInvalidPayload
	}
	if s.Dispatcher == nil {
		return errors.New("no dispatcher configured")
	}

	person, err := s.Users.GetByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("failed to load recipient %s: %w", payload.UserID, err)
	}
	ch := Channel(payload.Channel)
	if !channelEnabled(person.Preferences, ch) {
		s.Logger.Info("channel disabled since delivery was queued",
			zap.String("userId", payload.UserID),
			zap.String("channel", payload.Channel))
		return nil
	}

	msg := Message{
		Title: payload.Title,
		Body:  payload.Message,
		Data: map[string]string{
			"notificationId": payload.NotificationID,
			"type":           string(payload.Type),
			"relatedId":      payload.RelatedID,
		},
	}
	if err := s.Dispatcher.SendOnce(ctx, ch, recipientFor(person), msg); err != nil {
		sendsTotal.WithLabelValues(payload.Channel, "failed").Inc()
		return fmt.Errorf("queued %s delivery failed: %w", payload.Channel, err)
	}
	sendsTotal.WithLabelValues(payload.Channel, "sent").Inc()
	return nil
}

func (s *DefaultNotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	notifications, err := s.Repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

// MarkRead is idempotent: it reports false when the notification was already read.
func (s *DefaultNotificationService) MarkRead(ctx context.Context, userID, id string) (bool, error) {
	changed, err := s.Repo.MarkRead(ctx, id, userID, s.now())
	if errors.Is(err, database.ErrNotFound) {
		return false, ErrNotificationNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return changed, nil
}

func (s *DefaultNotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	changed, err := s.Repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return changed, nil
}

func (s *DefaultNotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.Repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func recipientFor(p *models.Person) Recipient {
	return Recipient{
		UserID:   p.ID,
		Name:     p.DisplayName(),
		Email:    p.Email,
		Phone:    p.PhoneNumber,
		FCMToken: p.FCMToken,
	}
}
