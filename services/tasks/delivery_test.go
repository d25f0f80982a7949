package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"bloodsync/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

func TestDeliveryTask_RoundTrip(t *testing.T) {
	payload := models.DeliveryPayload{NotificationID: "n1", UserID: "u1", Channel: "sms", Message: "hi", Attempt: 3}

	task, opts, err := NewDeliveryTask(payload, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, TypeDeliverNotification, task.Type())
	assert.Len(t, opts, 3)

	got, err := ParseDeliveryTask(task)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = ParseDeliveryTask(asynq.NewTask(TypeDeliverNotification, []byte("{")))
	assert.Error(t, err)
}

func TestAsynqRequeuer(t *testing.T) {
	client := &MockEnqueuer{}
	client.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		return task.Type() == TypeDeliverNotification
	}), mock.Anything).Return(&asynq.TaskInfo{ID: "t1"}, nil).Once()
	client.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("redis down")).Once()

	r := NewAsynqRequeuer(client)
	payload := models.DeliveryPayload{NotificationID: "n1", UserID: "u1", Channel: "email"}

	require.NoError(t, r.Requeue(context.Background(), payload))
	assert.ErrorContains(t, r.Requeue(context.Background(), payload), "redis down")
	client.AssertExpectations(t)
}
