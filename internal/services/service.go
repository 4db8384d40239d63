package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxBalanceAttempts bounds how often a debit is retried after losing a
// compare-and-swap race.
const maxBalanceAttempts = 3

// Notifier accepts messages for asynchronous delivery. Implementations
// must not block on the provider and must not fail the caller.
type Notifier interface {
	Notify(ctx context.Context, event models.NotificationEvent, message string, phones ...string)
}

// storeError maps repository errors onto API errors.
func storeError(entity string, op string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.ErrNotFound(entity)
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

// ParseID converts a hex path or body parameter into an ObjectID.
func ParseID(entity, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperror.ErrNotFound(entity)
	}
	return id, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
