package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bloodsync/models"

	"github.com/hibiken/asynq"
)

const (
	TypeDeliverNotification = "notification:deliver"
	QueueNotifications      = "notifications"

	deliveryMaxRetry = 5
	deliveryDelay    = time.Minute
)

func NewDeliveryTask(payload models.DeliveryPayload, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeDeliverNotification, b)
	opts := []asynq.Option{
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(deliveryMaxRetry),
		asynq.ProcessIn(delay),
	}
	return task, opts, nil
}

// ParseDeliveryTask decodes a task built by NewDeliveryTask.
func ParseDeliveryTask(task *asynq.Task) (models.DeliveryPayload, error) {
	var p models.DeliveryPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid delivery payload: %w", err)
	}
	return p, nil
}

// Enqueuer is the part of *asynq.Client the requeuer uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqRequeuer hands deliveries that exhausted their inline attempts to the
// background worker.
type AsynqRequeuer struct {
	Client Enqueuer
	Delay  time.Duration
}

func NewAsynqRequeuer(client Enqueuer) *AsynqRequeuer {
	return &AsynqRequeuer{Client: client, Delay: deliveryDelay}
}

func (r *AsynqRequeuer) Requeue(ctx context.Context, payload models.DeliveryPayload) error {
	task, opts, err := NewDeliveryTask(payload, r.Delay)
	if err != nil {
		return err
	}
	if _, err := r.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue %s delivery: %w", payload.Channel, err)
	}
	return nil
}
