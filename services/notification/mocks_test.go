package notification

import (
	"context"

	"bloodsync/models"

	"github.com/stretchr/testify/mock"
)

type MockSender struct {
	mock.Mock
	channel Channel
}

func (m *MockSender) Channel() Channel { return m.channel }

func (m *MockSender) Send(ctx context.Context, to Recipient, msg Message) (SendResult, error) {
	args := m.Called(ctx, to, msg)
	return args.Get(0).(SendResult), args.Error(1)
}

type MockRequeuer struct {
	mock.Mock
}

func (m *MockRequeuer) Requeue(ctx context.Context, payload models.DeliveryPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
