package workers

import (
	"context"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/ArowuTest/tripledigit-backend/pkg/metrics"
	"github.com/ArowuTest/tripledigit-backend/pkg/smsgateway"
	"github.com/rs/zerolog"
)

const (
	dequeueTimeout  = 2 * time.Second
	errorBackoff    = 500 * time.Millisecond
	// deliveryTimeout bounds one delivery once it has started, including
	// delivery that outlives a shutdown.
	deliveryTimeout = 30 * time.Second
)

// TaskQueue is the consumer side of the notification outbox.
type TaskQueue interface {
	Enqueue(ctx context.Context, task *models.NotificationTask) error
	Dequeue(ctx context.Context, timeout time.Duration) (*models.NotificationTask, error)
	Defer(ctx context.Context, task *models.NotificationTask) error
	RequeueDeferred(ctx context.Context) (int, error)
}

// NotificationWorker delivers outbox tasks through the SMS gateway and
// writes an audit log for every attempt.
type NotificationWorker struct {
	queue       TaskQueue
	gateway     smsgateway.Gateway
	logs        repositories.NotificationLogRepository
	metrics     *metrics.Metrics
	maxAttempts int
	log         zerolog.Logger
}

// NewNotificationWorker creates a new NotificationWorker
func NewNotificationWorker(queue TaskQueue, gateway smsgateway.Gateway, logs repositories.NotificationLogRepository, m *metrics.Metrics, maxAttempts int, log zerolog.Logger) *NotificationWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &NotificationWorker{
		queue:       queue,
		gateway:     gateway,
		logs:        logs,
		metrics:     m,
		maxAttempts: maxAttempts,
		log:         log.With().Str("component", "notification-worker").Logger(),
	}
}

// Run consumes the outbox until ctx is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("notification worker started")
	for {
		task, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info().Msg("notification worker stopped")
				return ctx.Err()
			}
			w.log.Warn().Err(err).Msg("outbox read failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
			continue
		}
		if task == nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		w.Process(ctx, task)
	}
}

// Process delivers one task. Retryable failures are parked for the retry
// sweep until the attempt budget is spent.
//
// A task handed over after ctx is cancelled goes back to the outbox
// untouched. Once sending starts, cancelling ctx no longer interrupts it.
func (w *NotificationWorker) Process(ctx context.Context, task *models.NotificationTask) models.NotificationStatus {
	stopping := ctx.Err() != nil
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	if stopping {
		if err := w.queue.Enqueue(ctx, task); err != nil {
			w.log.Error().Err(err).Str("task_id", task.ID).Msg("failed to return notification to outbox")
		}
		return models.NotificationQueued
	}

	task.Attempts++
	bulk := w.gateway.SendBulk(ctx, task.Recipients, task.Message)
	status := models.NotificationStatusFor(bulk.Sent, bulk.Failed)
	w.metrics.ObserveNotification(string(status))

	entry := &models.NotificationLog{
		Recipients:       task.Recipients,
		Message:          task.Message,
		Status:           status,
		Source:           task.Event,
		IssuedBy:         models.IssuedBySystem,
		SentCount:        bulk.Sent,
		FailedCount:      bulk.Failed,
		ProviderResponse: bulk.Summary(),
		CreatedAt:        time.Now(),
	}
	if err := w.logs.Create(ctx, entry); err != nil {
		w.log.Error().Err(err).Str("task_id", task.ID).Msg("failed to record notification log")
	}

	event := w.log.Info()
	if status != models.NotificationSent {
		event = w.log.Warn()
	}
	event.Str("task_id", task.ID).
		Str("event", string(task.Event)).
		Int("attempt", task.Attempts).
		Int("sent", bulk.Sent).
		Int("failed", bulk.Failed).
		Msg("notification processed")

	if status == models.NotificationSent || !bulk.Retryable() {
		return status
	}
	if task.Attempts >= w.maxAttempts {
		w.log.Error().Str("task_id", task.ID).Int("attempts", task.Attempts).Msg("notification dropped after max attempts")
		return status
	}

	// Only the recipients that failed are retried.
	retry := *task
	retry.Recipients = retry.Recipients[:0:0]
	for _, r := range bulk.Results {
		if !r.Success && r.Retryable() {
			retry.Recipients = append(retry.Recipients, r.Phone)
		}
	}
	retry.LastError = string(firstError(bulk))
	if err := w.queue.Defer(ctx, &retry); err != nil {
		w.log.Error().Err(err).Str("task_id", task.ID).Msg("failed to park notification for retry")
	}
	return status
}

// RequeueDeferred moves parked tasks back into the outbox.
func (w *NotificationWorker) RequeueDeferred(ctx context.Context) {
	moved, err := w.queue.RequeueDeferred(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("retry sweep failed")
		return
	}
	if moved > 0 {
		w.log.Info().Int("tasks", moved).Msg("requeued deferred notifications")
	}
}

func firstError(b smsgateway.BulkResult) smsgateway.ErrorKind {
	for _, r := range b.Results {
		if !r.Success {
			return r.ErrorKind
		}
	}
	return smsgateway.KindNone
}
