package services

import (
	"context"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var _ Notifier = (*NotificationService)(nil)

// TaskQueue is the write side of the notification outbox.
type TaskQueue interface {
	Enqueue(ctx context.Context, task *models.NotificationTask) error
}

// NotificationService turns business events into outbox tasks. Delivery
// happens in the notification worker.
type NotificationService struct {
	queue TaskQueue
	log   zerolog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(queue TaskQueue, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		queue: queue,
		log:   log.With().Str("component", "notifications").Logger(),
	}
}

// Notify enqueues message for every non-empty phone. Enqueue failures are
// logged and otherwise ignored.
func (s *NotificationService) Notify(ctx context.Context, event models.NotificationEvent, message string, phones ...string) {
	recipients := make([]string, 0, len(phones))
	for _, p := range phones {
		if p != "" {
			recipients = append(recipients, p)
		}
	}
	if len(recipients) == 0 {
		s.log.Debug().Str("event", string(event)).Msg("notification skipped, no recipients")
		return
	}

	task := &models.NotificationTask{
		ID:         uuid.NewString(),
		Event:      event,
		Recipients: recipients,
		Message:    message,
		CreatedAt:  time.Now(),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.log.Error().Err(err).
			Str("event", string(event)).
			Str("task_id", task.ID).
			Msg("failed to enqueue notification")
	}
}
