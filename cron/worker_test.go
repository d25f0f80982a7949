package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloodsync/models"
	"bloodsync/services/notification"
	"bloodsync/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, payload models.DeliveryPayload) error {
	return m.Called(ctx, payload).Error(0)
}

func deliveryTask(t *testing.T, p models.DeliveryPayload) *asynq.Task {
	t.Helper()
	task, _, err := tasks.NewDeliveryTask(p, 0)
	require.NoError(t, err)
	return task
}

func TestHandleDeliveryTask(t *testing.T) {
	ok := models.DeliveryPayload{NotificationID: "ok", UserID: "u", Channel: "sms"}
	flaky := models.DeliveryPayload{NotificationID: "flaky", UserID: "u", Channel: "email"}
	bad := models.DeliveryPayload{NotificationID: "bad"}

	d := &MockDeliverer{}
	d.On("Deliver", mock.Anything, ok).Return(nil)
	d.On("Deliver", mock.Anything, flaky).Return(errors.New("provider 503"))
	d.On("Deliver", mock.Anything, bad).Return(notification.ErrInvalidPayload)

	handler := handleDeliveryTask(d)
	ctx := context.Background()

	assert.NoError(t, handler(ctx, deliveryTask(t, ok)))

	err := handler(ctx, deliveryTask(t, flaky))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))

	err = handler(ctx, deliveryTask(t, bad))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = handler(ctx, asynq.NewTask(tasks.TypeDeliverNotification, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	d.AssertExpectations(t)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Minute, retryDelay(0, nil, nil))
	assert.Equal(t, 3*time.Minute, retryDelay(2, nil, nil))
	assert.Equal(t, 15*time.Minute, retryDelay(40, nil, nil))
}
