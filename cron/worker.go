package cron

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bloodsync/config"
	"bloodsync/models"
	"bloodsync/services/tasks"
	"bloodsync/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Deliverer makes one attempt at a queued external delivery.
type Deliverer interface {
	Deliver(ctx context.Context, payload models.DeliveryPayload) error
}

// RedisQueueOpt is the asynq connection for the delivery queue.
func RedisQueueOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitDeliveryWorker runs the notification redelivery worker in background.
// The returned server must be shut down on exit.
func InitDeliveryWorker(ctx context.Context, deliverer Deliverer) *asynq.Server {
	srv := asynq.NewServer(
		RedisQueueOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueNotifications: 1,
			},
			RetryDelayFunc: retryDelay,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeDeliverNotification, handleDeliveryTask(deliverer))

	go monitorRedisConnection(ctx)

	go func() {
		log.Println("[DeliveryWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				break
			}
			log.Printf("[DeliveryWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)
			if attempts == maxAttempts {
				log.Println("[DeliveryWorker] Max retry attempts reached, queued deliveries will not be processed")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func handleDeliveryTask(deliverer Deliverer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseDeliveryTask(task)
		if err != nil {
			utils.GetLogger().Error("Dropping undecodable delivery task", zap.Error(err))
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}

		err = deliverer.Deliver(ctx, p)
		if err == nil {
			utils.GetLogger().Info("Queued notification delivered",
				zap.String("notificationId", p.NotificationID),
				zap.String("channel", p.Channel))
			return nil
		}

		var appErr *utils.AppError
		if errors.As(err, &appErr) && appErr.Code == utils.CodeValidation {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		utils.GetLogger().Warn("Queued notification delivery failed",
			zap.String("notificationId", p.NotificationID),
			zap.String("channel", p.Channel),
			zap.Error(err))
		return err
	}
}

// retryDelay backs off linearly from one minute, capped at fifteen.
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	d := time.Duration(n+1) * time.Minute
	if d > 15*time.Minute {
		d = 15 * time.Minute
	}
	return d
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				log.Printf("[DeliveryWorker] Redis connection lost: %v", err)
			}
		}
	}
}
