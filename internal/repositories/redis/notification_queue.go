package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	goredis "github.com/redis/go-redis/v9"
)

const (
	outboxKey = "notify:outbox"
	retryKey  = "notify:retry"
)

// NotificationQueue is the outbox between request handling and SMS
// delivery. Tasks are pushed on the left and popped from the right so the
// oldest task is delivered first.
type NotificationQueue struct {
	client *goredis.Client
}

// NewNotificationQueue creates a Redis-backed notification queue.
func NewNotificationQueue(client *goredis.Client) *NotificationQueue {
	return &NotificationQueue{client: client}
}

// Enqueue appends a task to the outbox.
func (q *NotificationQueue) Enqueue(ctx context.Context, task *models.NotificationTask) error {
	return q.push(ctx, outboxKey, task)
}

// Dequeue blocks up to timeout for the next task. It returns nil, nil when
// the timeout elapses with the outbox empty.
func (q *NotificationQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.NotificationTask, error) {
	res, err := q.client.BRPop(ctx, timeout, outboxKey).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis brpop: %w", err)
	}

	// BRPOP replies with [key, value]
	var task models.NotificationTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		return nil, fmt.Errorf("decoding notification task: %w", err)
	}
	return &task, nil
}

// Defer parks a failed task until the next retry sweep.
func (q *NotificationQueue) Defer(ctx context.Context, task *models.NotificationTask) error {
	return q.push(ctx, retryKey, task)
}

// RequeueDeferred moves the tasks parked when the sweep starts back to the
// outbox and returns how many were moved. Tasks parked during the sweep
// wait for the next one.
func (q *NotificationQueue) RequeueDeferred(ctx context.Context) (int, error) {
	parked, err := q.client.LLen(ctx, retryKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis llen: %w", err)
	}

	moved := 0
	for ; int64(moved) < parked; moved++ {
		err := q.client.LMove(ctx, retryKey, outboxKey, "RIGHT", "LEFT").Err()
		if errors.Is(err, goredis.Nil) {
			break
		}
		if err != nil {
			return moved, fmt.Errorf("redis lmove: %w", err)
		}
	}
	return moved, nil
}

// Depth returns the number of tasks waiting in the outbox and retry lists.
func (q *NotificationQueue) Depth(ctx context.Context) (outbox, retry int64, err error) {
	pipe := q.client.Pipeline()
	o := pipe.LLen(ctx, outboxKey)
	r := pipe.LLen(ctx, retryKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("redis llen: %w", err)
	}
	return o.Val(), r.Val(), nil
}

func (q *NotificationQueue) push(ctx context.Context, key string, task *models.NotificationTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encoding notification task: %w", err)
	}
	if err := q.client.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("redis lpush %s: %w", key, err)
	}
	return nil
}
