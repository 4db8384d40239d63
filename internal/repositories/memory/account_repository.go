package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.AccountRepository = (*AccountRepository)(nil)

// AccountRepository keeps accounts in a map guarded by a mutex
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[primitive.ObjectID]*models.Account
	order    []primitive.ObjectID
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[primitive.ObjectID]*models.Account)}
}

func (r *AccountRepository) Create(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(account.Email)
	for _, a := range r.accounts {
		if a.Email == email {
			return repositories.ErrDuplicate
		}
	}

	now := time.Now()
	account.ID = primitive.NewObjectID()
	account.Email = email
	account.CreatedAt = now
	account.UpdatedAt = now

	cp := *account
	r.accounts[account.ID] = &cp
	r.order = append(r.order, account.ID)
	return nil
}

func (r *AccountRepository) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *AccountRepository) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	for _, a := range r.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *AccountRepository) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Account{}
	for _, id := range ids {
		if a, ok := r.accounts[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *AccountRepository) FindByRole(_ context.Context, role models.Role) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.Account{}
	for _, id := range r.order {
		if a := r.accounts[id]; a.Role == role {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *AccountRepository) List(_ context.Context, skip, limit int64) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.Account, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		cp := *r.accounts[r.order[i]]
		all = append(all, &cp)
	}
	return page(all, skip, limit), nil
}

func (r *AccountRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.accounts)), nil
}

func (r *AccountRepository) CompareAndSwapBalance(_ context.Context, id primitive.ObjectID, expected, next decimal.Decimal) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok || !a.Balance.Equal(expected) {
		return false, nil
	}
	a.Balance = next
	a.UpdatedAt = time.Now()
	return true, nil
}

func (r *AccountRepository) IncrementBalance(_ context.Context, id primitive.ObjectID, delta decimal.Decimal) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *AccountRepository) SetRole(_ context.Context, id primitive.ObjectID, role models.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.Role = role
	a.UpdatedAt = time.Now()
	return nil
}
