// Package memory implements the repositories in process memory. It backs
// local development without MongoDB (STORAGE_DRIVER=memory) and the service
// tests.
package memory

import (
	"sort"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
)

// NewStore builds every repository with empty state
func NewStore() *repositories.Store {
	return &repositories.Store{
		Accounts:         NewAccountRepository(),
		Ledger:           NewLedgerRepository(),
		Wagers:           NewWagerRepository(),
		NotificationLogs: NewNotificationLogRepository(),
		PayoutConfig:     NewPayoutConfigRepository(),
	}
}

// page applies skip/limit to an already sorted slice.
func page[T any](items []T, skip, limit int64) []T {
	if skip >= int64(len(items)) {
		return []T{}
	}
	end := int64(len(items))
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return items[skip:end]
}

// newestFirst sorts by creation time descending. Equal timestamps keep
// their current relative order.
func newestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}
