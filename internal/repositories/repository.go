package repositories

import (
	"context"
	"errors"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no document matches, including when a
	// conditional update finds its precondition no longer holds.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate document")
)

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Account, error)
	FindByRole(ctx context.Context, role models.Role) ([]*models.Account, error)
	List(ctx context.Context, skip, limit int64) ([]*models.Account, error)
	Count(ctx context.Context) (int64, error)
	// CompareAndSwapBalance sets the balance to next only while it still
	// equals expected, and reports whether the write happened.
	CompareAndSwapBalance(ctx context.Context, id primitive.ObjectID, expected, next decimal.Decimal) (bool, error)
	// IncrementBalance atomically adds delta and returns the updated account.
	IncrementBalance(ctx context.Context, id primitive.ObjectID, delta decimal.Decimal) (*models.Account, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) error
}

// LedgerRepository defines the interface for ledger entry operations
type LedgerRepository interface {
	Create(ctx context.Context, entry *models.LedgerEntry) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.LedgerEntry, error)
	List(ctx context.Context, filter models.LedgerFilter, skip, limit int64) ([]*models.LedgerEntry, error)
	// Transition applies t only if the entry is still in t.From and returns
	// the updated entry. ErrNotFound means the precondition failed.
	Transition(ctx context.Context, id primitive.ObjectID, t models.StatusTransition) (*models.LedgerEntry, error)
	Aggregate(ctx context.Context) ([]models.LedgerAggregate, error)
}

// WagerRepository defines the interface for wager record operations
type WagerRepository interface {
	Create(ctx context.Context, wager *models.WagerRecord) error
	ListByAccount(ctx context.Context, accountID primitive.ObjectID, skip, limit int64) ([]*models.WagerRecord, error)
}

// NotificationLogRepository defines the interface for SMS audit logs
type NotificationLogRepository interface {
	Create(ctx context.Context, log *models.NotificationLog) error
	List(ctx context.Context, skip, limit int64) ([]*models.NotificationLog, error)
	Count(ctx context.Context) (int64, error)
}

// PayoutConfigRepository stores the singleton payout configuration
type PayoutConfigRepository interface {
	// Get returns the stored configuration, persisting the defaults first
	// when none exists.
	Get(ctx context.Context) (*models.PayoutConfig, error)
	Save(ctx context.Context, cfg *models.PayoutConfig) error
}

// Store bundles the repositories of one storage backend.
type Store struct {
	Accounts         AccountRepository
	Ledger           LedgerRepository
	Wagers           WagerRepository
	NotificationLogs NotificationLogRepository
	PayoutConfig     PayoutConfigRepository
}
