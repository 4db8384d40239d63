package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.LedgerRepository = (*LedgerRepository)(nil)

type LedgerRepository struct {
	mu      sync.RWMutex
	entries map[primitive.ObjectID]*models.LedgerEntry
	order   []primitive.ObjectID
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{entries: make(map[primitive.ObjectID]*models.LedgerEntry)}
}

func (r *LedgerRepository) Create(_ context.Context, entry *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	cp := *entry
	r.entries[entry.ID] = &cp
	r.order = append(r.order, entry.ID)
	return nil
}

func (r *LedgerRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *LedgerRepository) List(_ context.Context, filter models.LedgerFilter, skip, limit int64) ([]*models.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.LedgerEntry{}
	for i := len(r.order) - 1; i >= 0; i-- {
		e := r.entries[r.order[i]]
		if filter.AccountID != nil && e.AccountID != *filter.AccountID {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return page(out, skip, limit), nil
}

func (r *LedgerRepository) Transition(_ context.Context, id primitive.ObjectID, t models.StatusTransition) (*models.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.Status != t.From {
		return nil, repositories.ErrNotFound
	}

	now := time.Now()
	by := t.ProcessedBy
	e.Status = t.To
	e.ProcessedBy = &by
	e.ProcessedAt = &now
	e.UpdatedAt = now
	if t.Reason != "" {
		e.Reason = t.Reason
	}
	cp := *e
	return &cp, nil
}

func (r *LedgerRepository) Aggregate(_ context.Context) ([]models.LedgerAggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type key struct {
		kind   models.LedgerKind
		status models.LedgerStatus
	}
	buckets := map[key]*models.LedgerAggregate{}
	for _, e := range r.entries {
		k := key{e.Kind, e.Status}
		b, ok := buckets[k]
		if !ok {
			b = &models.LedgerAggregate{Kind: e.Kind, Status: e.Status, Total: decimal.Zero}
			buckets[k] = b
		}
		b.Count++
		b.Total = b.Total.Add(e.Amount)
	}

	out := make([]models.LedgerAggregate, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}
