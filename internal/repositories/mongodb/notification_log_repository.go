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

var _ repositories.NotificationLogRepository = (*NotificationLogRepository)(nil)

// NotificationLogRepository stores SMS audit logs
type NotificationLogRepository struct {
	collection *mongo.Collection
}

// NewNotificationLogRepository creates a new NotificationLogRepository
func NewNotificationLogRepository(db *mongo.Database) *NotificationLogRepository {
	return &NotificationLogRepository{
		collection: db.Collection(CollectionSMSLogs),
	}
}

// Create inserts a new log entry
func (r *NotificationLogRepository) Create(ctx context.Context, log *models.NotificationLog) error {
	log.ID = primitive.NewObjectID()
	log.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, log)
	return err
}

// List returns logs newest first
func (r *NotificationLogRepository) List(ctx context.Context, skip, limit int64) ([]*models.NotificationLog, error) {
	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []*models.NotificationLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// Count returns the number of logs
func (r *NotificationLogRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
