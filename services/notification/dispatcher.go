package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloodsync/models"
	"bloodsync/utils"

	"go.uber.org/zap"
)

// ErrNotificationSendFailed reports that an external send gave up. It is a
// warning: the in-app notification and the workflow transition stand.
var ErrNotificationSendFailed = utils.NewAppError(utils.CodeNotificationSendFailed, "external notification delivery failed")

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 500 * time.Millisecond
	defaultSendTimeout = 10 * time.Second
)

// Requeuer hands a delivery that exhausted its attempts to a background queue.
type Requeuer interface {
	Requeue(ctx context.Context, payload models.DeliveryPayload) error
}

// DeliveryFailure describes one channel that could not be reached.
type DeliveryFailure struct {
	NotificationID string `json:"notificationId"`
	UserID         string `json:"userId"`
	Channel        string `json:"channel"`
	Attempts       int    `json:"attempts"`
	Requeued       bool   `json:"requeued"`
	Error          string `json:"error"`
}

// DispatchReport summarises an external fan-out.
type DispatchReport struct {
	Sent     int               `json:"sent"`
	Failures []DeliveryFailure `json:"failures,omitempty"`
}

// Err returns nil when every send succeeded, otherwise an ErrNotificationSendFailed.
func (r DispatchReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return ErrNotificationSendFailed.Withf("%d external deliveries failed", len(r.Failures))
}

// Warnings returns human-readable messages for each failure.
func (r DispatchReport) Warnings() []string {
	var out []string
	for _, f := range r.Failures {
		out = append(out, fmt.Sprintf("%s notification to %s could not be delivered", f.Channel, f.UserID))
	}
	return out
}

func (r *DispatchReport) merge(other DispatchReport) {
	r.Sent += other.Sent
	r.Failures = append(r.Failures, other.Failures...)
}

// Dispatcher sends through the configured channels with bounded retries.
type Dispatcher struct {
	senders     map[Channel]Sender
	MaxAttempts int
	Backoff     time.Duration
	SendTimeout time.Duration
	Requeuer    Requeuer
	Logger      *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(logger *zap.Logger, senders ...Sender) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		senders:     make(map[Channel]Sender, len(senders)),
		MaxAttempts: defaultMaxAttempts,
		Backoff:     defaultBackoff,
		SendTimeout: defaultSendTimeout,
		Logger:      logger,
		sleep:       sleepContext,
	}
	for _, s := range senders {
		if s != nil {
			d.senders[s.Channel()] = s
		}
	}
	return d
}

// Sender returns the sender registered for ch.
func (d *Dispatcher) Sender(ch Channel) (Sender, bool) {
	s, ok := d.senders[ch]
	return s, ok
}

// Deliver sends n to every enabled channel the recipient has an address for.
func (d *Dispatcher) Deliver(ctx context.Context, to Recipient, prefs models.NotificationPreferences, n models.Notification) DispatchReport {
	var report DispatchReport
	msg := messageFor(n)

	for _, ch := range []Channel{ChannelPush, ChannelEmail, ChannelSMS} {
		if !channelEnabled(prefs, ch) || to.Address(ch) == "" {
			continue
		}
		sender, ok := d.senders[ch]
		if !ok {
			continue
		}

		attempts, err := d.sendWithRetry(ctx, sender, to, msg)
		if err == nil {
			report.Sent++
			sendsTotal.WithLabelValues(string(ch), "sent").Inc()
			continue
		}

		sendsTotal.WithLabelValues(string(ch), "failed").Inc()
		failure := DeliveryFailure{
			NotificationID: n.ID,
			UserID:         to.UserID,
			Channel:        string(ch),
			Attempts:       attempts,
			Error:          err.Error(),
		}
		failure.Requeued = d.requeue(ctx, n, ch, attempts)
		d.Logger.Warn("external notification delivery failed",
			zap.String("channel", string(ch)),
			zap.String("userId", to.UserID),
			zap.String("notificationId", n.ID),
			zap.Int("attempts", attempts),
			zap.Bool("requeued", failure.Requeued),
			zap.Error(err))
		report.Failures = append(report.Failures, failure)
	}
	return report
}

// SendOnce makes a single attempt on ch, for queued redeliveries.
func (d *Dispatcher) SendOnce(ctx context.Context, ch Channel, to Recipient, msg Message) error {
	sender, ok := d.senders[ch]
	if !ok {
		return fmt.Errorf("no sender configured for channel %s", ch)
	}
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout())
	defer cancel()
	_, err := sender.Send(sendCtx, to, msg)
	return err
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, sender Sender, to Recipient, msg Message) (int, error) {
	maxAttempts := d.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout())
		res, err := sender.Send(sendCtx, to, msg)
		cancel()
		if err == nil {
			d.Logger.Debug("external notification sent",
				zap.String("channel", string(sender.Channel())),
				zap.String("userId", to.UserID),
				zap.String("providerId", res.ID),
				zap.Int("attempt", attempt))
			return attempt, nil
		}
		if errors.Is(err, errNoAddress) {
			return attempt, err
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		backoff := d.Backoff << (attempt - 1)
		if err := d.sleep(ctx, backoff); err != nil {
			return attempt, fmt.Errorf("%w (gave up: %v)", lastErr, err)
		}
	}
	return maxAttempts, lastErr
}

func (d *Dispatcher) requeue(ctx context.Context, n models.Notification, ch Channel, attempts int) bool {
	if d.Requeuer == nil {
		return false
	}
	payload := models.DeliveryPayload{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Channel:        string(ch),
		Type:           n.Type,
		Title:          n.Title(),
		Message:        n.Message,
		RelatedID:      n.RelatedID,
		Attempt:        attempts,
	}
	if err := d.Requeuer.Requeue(ctx, payload); err != nil {
		d.Logger.Warn("failed to requeue notification delivery",
			zap.String("notificationId", n.ID),
			zap.String("channel", string(ch)),
			zap.Error(err))
		return false
	}
	requeuedTotal.WithLabelValues(string(ch)).Inc()
	return true
}

func (d *Dispatcher) sendTimeout() time.Duration {
	if d.SendTimeout <= 0 {
		return defaultSendTimeout
	}
	return d.SendTimeout
}

func channelEnabled(prefs models.NotificationPreferences, ch Channel) bool {
	switch ch {
	case ChannelPush:
		return prefs.Push
	case ChannelEmail:
		return prefs.Email
	case ChannelSMS:
		return prefs.SMS
	}
	return false
}

func messageFor(n models.Notification) Message {
	return Message{
		Title: n.Title(),
		Body:  n.Message,
		Data: map[string]string{
			"notificationId": n.ID,
			"type":           string(n.Type),
			"relatedId":      n.RelatedID,
		},
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
