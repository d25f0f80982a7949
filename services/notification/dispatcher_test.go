package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloodsync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher(senders ...Sender) (*Dispatcher, *[]time.Duration) {
	d := NewDispatcher(zap.NewNop(), senders...)
	d.Backoff = 100 * time.Millisecond
	var slept []time.Duration
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		slept = append(slept, dur)
		return nil
	}
	return d, &slept
}

func sampleNotification() models.Notification {
	return models.Notification{
		ID:        "n-1",
		UserID:    "donor-1",
		Message:   OfferAcceptedMessage(models.BloodOPos),
		Type:      models.NotificationOfferAccepted,
		RelatedID: "req-1",
	}
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	email := &MockSender{channel: ChannelEmail}
	email.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(SendResult{}, errors.New("503")).Twice()
	email.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(SendResult{ID: "em_1"}, nil).Once()

	d, slept := newTestDispatcher(email)
	to := Recipient{UserID: "donor-1", Email: "donor@example.com"}

	report := d.Deliver(context.Background(), to, models.NotificationPreferences{Email: true}, sampleNotification())

	assert.Equal(t, 1, report.Sent)
	assert.Empty(t, report.Failures)
	assert.NoError(t, report.Err())
	email.AssertNumberOfCalls(t, "Send", 3)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
}

func TestDispatcher_PermanentFailureIsRequeued(t *testing.T) {
	sms := &MockSender{channel: ChannelSMS}
	sms.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(SendResult{}, errors.New("carrier down"))

	requeuer := &MockRequeuer{}
	requeuer.On("Requeue", mock.Anything, mock.MatchedBy(func(p models.DeliveryPayload) bool {
		return p.NotificationID == "n-1" && p.Channel == "sms" && p.Attempt == 3 && p.Title == "Offer accepted"
	})).Return(nil).Once()

	d, _ := newTestDispatcher(sms)
	d.Requeuer = requeuer
	to := Recipient{UserID: "donor-1", Phone: "+15550100"}

	report := d.Deliver(context.Background(), to, models.NotificationPreferences{SMS: true}, sampleNotification())

	assert.Equal(t, 0, report.Sent)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "sms", report.Failures[0].Channel)
	assert.Equal(t, 3, report.Failures[0].Attempts)
	assert.True(t, report.Failures[0].Requeued)
	assert.ErrorIs(t, report.Err(), ErrNotificationSendFailed)
	assert.Len(t, report.Warnings(), 1)
	sms.AssertNumberOfCalls(t, "Send", 3)
	requeuer.AssertExpectations(t)
}

func TestDispatcher_HonoursPreferencesAndAddresses(t *testing.T) {
	push := &MockSender{channel: ChannelPush}
	email := &MockSender{channel: ChannelEmail}
	sms := &MockSender{channel: ChannelSMS}
	email.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(SendResult{ID: "em_1"}, nil)

	d, _ := newTestDispatcher(push, email, sms)
	// Push has no token, SMS is switched off.
	to := Recipient{UserID: "u", Email: "u@example.com", Phone: "+15550100"}
	prefs := models.NotificationPreferences{Push: true, Email: true, SMS: false}

	report := d.Deliver(context.Background(), to, prefs, sampleNotification())

	assert.Equal(t, 1, report.Sent)
	push.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	sms.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	email.AssertNumberOfCalls(t, "Send", 1)
}

func TestDispatcher_StopsWhenContextCancelled(t *testing.T) {
	email := &MockSender{channel: ChannelEmail}
	email.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(SendResult{}, errors.New("timeout"))

	d, _ := newTestDispatcher(email)
	d.sleep = func(ctx context.Context, dur time.Duration) error { return context.Canceled }

	report := d.Deliver(context.Background(), Recipient{UserID: "u", Email: "u@example.com"},
		models.NotificationPreferences{Email: true}, sampleNotification())

	require.Len(t, report.Failures, 1)
	assert.Equal(t, 1, report.Failures[0].Attempts)
	assert.False(t, report.Failures[0].Requeued)
	email.AssertNumberOfCalls(t, "Send", 1)
}

func TestOfferRejectedMessage_UsesShortID(t *testing.T) {
	assert.Equal(t, "Your offer for request #abcde was not accepted this time.", OfferRejectedMessage("abcdef-123"))
	assert.Equal(t, "Your offer for request #ab was not accepted this time.", OfferRejectedMessage("ab"))
	assert.Equal(t, "A donor has offered to fulfill your request for AB- blood.", RequestMatchMessage(models.BloodABNeg))
}
