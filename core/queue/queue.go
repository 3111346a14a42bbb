package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"glee-scheduler/core/config"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/logger"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// NotificationPayload is the outbox message for a single inbox notification.
type NotificationPayload struct {
	UserID  uuid.UUID      `json:"user_id"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Data    map[string]any `json:"data,omitempty"`
}

// Dispatcher enqueues notification messages after the primary write commits.
type Dispatcher interface {
	EnqueueNotification(ctx context.Context, payload NotificationPayload) error
}

type asynqDispatcher struct {
	client   *asynq.Client
	maxRetry int
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewDispatcher(client *asynq.Client, cfg config.QueueConfig) Dispatcher {
	return &asynqDispatcher{client: client, maxRetry: cfg.MaxRetry}
}

func NewNotificationTask(payload NotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal notification payload: %w", err)
	}
	return asynq.NewTask(constants.TaskNotificationDispatch, body), nil
}

func ParseNotificationTask(t *asynq.Task) (NotificationPayload, error) {
	var payload NotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("unmarshal notification payload: %w", err)
	}
	return payload, nil
}

func (d *asynqDispatcher) EnqueueNotification(ctx context.Context, payload NotificationPayload) error {
	task, err := NewNotificationTask(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.NotificationEnqueueWait)
	defer cancel()

	info, err := d.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(d.maxRetry),
		asynq.Timeout(30*time.Second),
		asynq.Queue("notifications"),
	)
	if err != nil {
		return err
	}
	logger.Debug("Queue:EnqueueNotification", "task_id", info.ID, "user_id", payload.UserID)
	return nil
}

// NewServer builds the worker that drains the notifications queue.
func NewServer(redisCfg config.RedisConfig, cfg config.QueueConfig) *asynq.Server {
	return asynq.NewServer(RedisOpt(redisCfg), asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{"notifications": 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("Queue:Worker:TaskFailed", "type", task.Type(), "error", err)
		}),
	})
}
