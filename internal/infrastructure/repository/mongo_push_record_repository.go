package repository

import (
	"context"
	"fmt"
	"time"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/infrastructure/repository/entity"
	"storefront-bridge/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPushRecordRepository implements PushRecordRepository using MongoDB
type MongoPushRecordRepository struct {
	collection *mongo.Collection
}

// NewMongoPushRecordRepository creates a new MongoDB push record repository
func NewMongoPushRecordRepository(db *mongo.Database) ports.PushRecordRepository {
	return &MongoPushRecordRepository{
		collection: db.Collection(pushRecordsCollection),
	}
}

// Save upserts a push record keyed by product and shop
func (r *MongoPushRecordRepository) Save(ctx context.Context, record *domain.PushRecord) error {
	doc := entity.MongoPushRecordDocFromDomain(record)
	doc.UpdatedAt = time.Now().UTC()
	if doc.PushedAt.IsZero() {
		doc.PushedAt = doc.UpdatedAt
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"productId": record.ProductID, "shop": record.Shop}
	update := bson.M{"$set": doc}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save push record: %w", err)
	}
	return nil
}

// Get retrieves the push record for a product in a shop
func (r *MongoPushRecordRepository) Get(ctx context.Context, productID, shop string) (*domain.PushRecord, error) {
	return r.findOne(ctx, bson.M{"productId": productID, "shop": shop})
}

// FindByExternalID retrieves the push record referencing an external product
func (r *MongoPushRecordRepository) FindByExternalID(ctx context.Context, shop string, externalProductID uint64) (*domain.PushRecord, error) {
	return r.findOne(ctx, bson.M{"shop": shop, "externalProductId": int64(externalProductID)})
}

func (r *MongoPushRecordRepository) findOne(ctx context.Context, filter bson.M) (*domain.PushRecord, error) {
	var doc entity.MongoPushRecordDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get push record: %w", err)
	}
	return doc.ToDomain(), nil
}

// ListByShop lists every push record for a shop
func (r *MongoPushRecordRepository) ListByShop(ctx context.Context, shop string) ([]*domain.PushRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"shop": shop})
	if err != nil {
		return nil, fmt.Errorf("failed to list push records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entity.MongoPushRecordDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode push records: %w", err)
	}

	records := make([]*domain.PushRecord, 0, len(docs))
	for i := range docs {
		records = append(records, docs[i].ToDomain())
	}
	return records, nil
}

// UpdateStatus changes the status of an existing record
func (r *MongoPushRecordRepository) UpdateStatus(ctx context.Context, productID, shop string, status domain.PushStatus) error {
	filter := bson.M{"productId": productID, "shop": shop}
	update := bson.M{"$set": bson.M{"status": string(status), "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update push record: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrPushRecordNotFound
	}
	return nil
}
