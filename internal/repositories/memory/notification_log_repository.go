package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.NotificationLogRepository = (*NotificationLogRepository)(nil)

type NotificationLogRepository struct {
	mu   sync.RWMutex
	logs []*models.NotificationLog
}

func NewNotificationLogRepository() *NotificationLogRepository {
	return &NotificationLogRepository{}
}

func (r *NotificationLogRepository) Create(_ context.Context, log *models.NotificationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now()
	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *NotificationLogRepository) List(_ context.Context, skip, limit int64) ([]*models.NotificationLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.NotificationLog, 0, len(r.logs))
	for i := len(r.logs) - 1; i >= 0; i-- {
		cp := *r.logs[i]
		out = append(out, &cp)
	}
	return page(out, skip, limit), nil
}

func (r *NotificationLogRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.logs)), nil
}
