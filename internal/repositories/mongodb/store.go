package mongodb

import (
	"context"
	"fmt"

	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionAccounts     = "accounts"
	CollectionTransactions = "transactions"
	CollectionWagers       = "wagers"
	CollectionSMSLogs      = "sms_logs"
	CollectionGameSettings = "game_settings"
)

// NewStore builds every repository on db
func NewStore(db *mongo.Database) *repositories.Store {
	return &repositories.Store{
		Accounts:         NewAccountRepository(db),
		Ledger:           NewLedgerRepository(db),
		Wagers:           NewWagerRepository(db),
		NotificationLogs: NewNotificationLogRepository(db),
		PayoutConfig:     NewPayoutConfigRepository(db),
	}
}

// EnsureIndexes creates the indexes the repositories rely on. It is safe to
// call on every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CollectionAccounts: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		CollectionTransactions: {
			{Keys: bson.D{{Key: "accountId", Value: 1}, {Key: "kind", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "status", Value: 1}}},
		},
		CollectionWagers: {
			{Keys: bson.D{{Key: "accountId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		CollectionSMSLogs: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}

	for coll, idx := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", coll, err)
		}
	}
	return nil
}
