package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/shopspring/decimal"
)

var _ repositories.PayoutConfigRepository = (*PayoutConfigRepository)(nil)

type PayoutConfigRepository struct {
	mu  sync.RWMutex
	cfg *models.PayoutConfig
}

func NewPayoutConfigRepository() *PayoutConfigRepository {
	return &PayoutConfigRepository{}
}

func (r *PayoutConfigRepository) Get(_ context.Context) (*models.PayoutConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg == nil {
		r.cfg = models.DefaultPayoutConfig()
	}
	return clonePayoutConfig(r.cfg), nil
}

func (r *PayoutConfigRepository) Save(_ context.Context, cfg *models.PayoutConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg.ID = models.PayoutConfigID
	cfg.UpdatedAt = time.Now()
	r.cfg = clonePayoutConfig(cfg)
	return nil
}

func clonePayoutConfig(c *models.PayoutConfig) *models.PayoutConfig {
	cp := *c
	cp.Multipliers = make(map[string]decimal.Decimal, len(c.Multipliers))
	for k, v := range c.Multipliers {
		cp.Multipliers[k] = v
	}
	return &cp
}
