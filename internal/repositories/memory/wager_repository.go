package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.WagerRepository = (*WagerRepository)(nil)

type WagerRepository struct {
	mu     sync.RWMutex
	wagers []*models.WagerRecord
}

func NewWagerRepository() *WagerRepository {
	return &WagerRepository{}
}

func (r *WagerRepository) Create(_ context.Context, wager *models.WagerRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wager.ID = primitive.NewObjectID()
	if wager.CreatedAt.IsZero() {
		wager.CreatedAt = time.Now()
	}
	cp := *wager
	r.wagers = append(r.wagers, &cp)
	return nil
}

func (r *WagerRepository) ListByAccount(_ context.Context, accountID primitive.ObjectID, skip, limit int64) ([]*models.WagerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.WagerRecord{}
	for i := len(r.wagers) - 1; i >= 0; i-- {
		if w := r.wagers[i]; w.AccountID == accountID {
			cp := *w
			out = append(out, &cp)
		}
	}
	newestFirst(out, func(w *models.WagerRecord) time.Time { return w.CreatedAt })
	return page(out, skip, limit), nil
}
