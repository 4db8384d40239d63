package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.WagerRepository = (*WagerRepository)(nil)

// WagerRepository handles MongoDB operations for WagerRecord
type WagerRepository struct {
	collection *mongo.Collection
}

// NewWagerRepository creates a new WagerRepository
func NewWagerRepository(db *mongo.Database) *WagerRepository {
	return &WagerRepository{
		collection: db.Collection(CollectionWagers),
	}
}

// Create inserts a new wager record
func (r *WagerRepository) Create(ctx context.Context, wager *models.WagerRecord) error {
	wager.ID = primitive.NewObjectID()
	if wager.CreatedAt.IsZero() {
		wager.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, wager)
	return err
}

// ListByAccount returns an account's wagers newest first
func (r *WagerRepository) ListByAccount(ctx context.Context, accountID primitive.ObjectID, skip, limit int64) ([]*models.WagerRecord, error) {
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"accountId": accountID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	wagers := []*models.WagerRecord{}
	if err := cursor.All(ctx, &wagers); err != nil {
		return nil, err
	}
	return wagers, nil
}
