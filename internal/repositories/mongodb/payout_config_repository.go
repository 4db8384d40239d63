package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.PayoutConfigRepository = (*PayoutConfigRepository)(nil)

// PayoutConfigRepository stores the singleton payout configuration
type PayoutConfigRepository struct {
	collection *mongo.Collection
}

// NewPayoutConfigRepository creates a new PayoutConfigRepository
func NewPayoutConfigRepository(db *mongo.Database) *PayoutConfigRepository {
	return &PayoutConfigRepository{
		collection: db.Collection(CollectionGameSettings),
	}
}

// Get retrieves the current configuration
func (r *PayoutConfigRepository) Get(ctx context.Context) (*models.PayoutConfig, error) {
	cfg, err := r.find(ctx)
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return cfg, err
	}

	// If no configuration exists, store the defaults
	cfg = models.DefaultPayoutConfig()
	if _, err := r.collection.InsertOne(ctx, cfg); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// another request inserted the defaults first
			return r.find(ctx)
		}
		return nil, err
	}
	return cfg, nil
}

// Save replaces the stored configuration
func (r *PayoutConfigRepository) Save(ctx context.Context, cfg *models.PayoutConfig) error {
	cfg.ID = models.PayoutConfigID
	cfg.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": models.PayoutConfigID}, cfg, options.Replace().SetUpsert(true))
	return err
}

func (r *PayoutConfigRepository) find(ctx context.Context) (*models.PayoutConfig, error) {
	var cfg models.PayoutConfig
	if err := r.collection.FindOne(ctx, bson.M{"_id": models.PayoutConfigID}).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
