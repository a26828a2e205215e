package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskDeliver is the asynq task type for one queued notification.
const TaskDeliver = "notification:deliver"

const (
	queueMaxRetry  = 5
	queueTimeout   = time.Minute
	queueRetention = 24 * time.Hour
)

// Queue is a Sender that hands messages to the worker through Redis.
// A message counts as sent once it is enqueued.
type Queue struct {
	client *asynq.Client
}

func NewQueue(redisURL string) (*Queue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &Queue{client: asynq.NewClient(opt)}, nil
}

func (q *Queue) Send(ctx context.Context, msg Message) error {
	task, err := NewDeliverTask(msg)
	if err != nil {
		return err
	}
	_, err = q.client.EnqueueContext(ctx, task)
	return err
}

func (q *Queue) Close() error {
	return q.client.Close()
}

// NewDeliverTask builds the asynq task for msg with the retry policy applied.
func NewDeliverTask(msg Message) (*asynq.Task, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(
		TaskDeliver,
		payload,
		asynq.MaxRetry(queueMaxRetry),
		asynq.Timeout(queueTimeout),
		asynq.Retention(queueRetention),
	), nil
}

// HandleDeliver returns the worker handler that sends queued messages.
// Unreachable recipients and malformed payloads are not retried.
func HandleDeliver(sender Sender, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var msg Message
		if err := json.Unmarshal(task.Payload(), &msg); err != nil {
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}
		if msg.Handle == "" {
			return fmt.Errorf("missing handle: %w", asynq.SkipRetry)
		}
		if err := sender.Send(ctx, msg); err != nil {
			if errors.Is(err, ErrRecipientUnreachable) {
				logger.Warn("Dropping notification", "handle", msg.Handle, "error", err)
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			return err
		}
		logger.Info("Notification delivered", "handle", msg.Handle, "attachment", msg.Attachment != "")
		return nil
	}
}
