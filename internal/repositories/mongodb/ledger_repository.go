package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ repositories.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository handles MongoDB operations for LedgerEntry
type LedgerRepository struct {
	collection *mongo.Collection
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	return &LedgerRepository{
		collection: db.Collection(CollectionTransactions),
	}
}

// Create inserts a new ledger entry
func (r *LedgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	now := time.Now()
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// FindByID finds a ledger entry by ID
func (r *LedgerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List finds entries matching filter, newest first
func (r *LedgerRepository) List(ctx context.Context, filter models.LedgerFilter, skip, limit int64) ([]*models.LedgerEntry, error) {
	query := bson.M{}
	if filter.AccountID != nil {
		query["accountId"] = *filter.AccountID
	}
	if filter.Kind != "" {
		query["kind"] = filter.Kind
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []*models.LedgerEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Transition moves an entry from t.From to t.To in a single conditional update
func (r *LedgerRepository) Transition(ctx context.Context, id primitive.ObjectID, t models.StatusTransition) (*models.LedgerEntry, error) {
	now := time.Now()
	set := bson.M{
		"status":      t.To,
		"processedBy": t.ProcessedBy,
		"processedAt": now,
		"updatedAt":   now,
	}
	if t.Reason != "" {
		set["reason"] = t.Reason
	}

	filter := bson.M{"_id": id, "status": t.From}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var entry models.LedgerEntry
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Aggregate sums and counts entries per kind and status
func (r *LedgerRepository) Aggregate(ctx context.Context) ([]models.LedgerAggregate, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "kind", Value: "$kind"}, {Key: "status", Value: "$status"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "kind", Value: "$_id.kind"},
			{Key: "status", Value: "$_id.status"},
			{Key: "count", Value: 1},
			{Key: "total", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "kind", Value: 1}, {Key: "status", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []models.LedgerAggregate{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
