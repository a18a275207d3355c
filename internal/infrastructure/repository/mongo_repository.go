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

const (
	credentialsCollection = "shopify_tokens"
	productsCollection    = "products"
	pushRecordsCollection = "product_pushes"
)

// EnsureMongoIndexes creates the indexes the Mongo repositories rely on
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		productsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "supplierId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		pushRecordsCollection: {
			{
				Keys:    bson.D{{Key: "productId", Value: 1}, {Key: "shop", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "shop", Value: 1}, {Key: "externalProductId", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// MongoCredentialRepository implements CredentialRepository using MongoDB.
// The shop domain is the document _id so upserts are keyed on it.
type MongoCredentialRepository struct {
	collection *mongo.Collection
}

// NewMongoCredentialRepository creates a new MongoDB credential repository
func NewMongoCredentialRepository(db *mongo.Database) ports.CredentialRepository {
	return &MongoCredentialRepository{
		collection: db.Collection(credentialsCollection),
	}
}

// Upsert saves or replaces the credential for a shop
func (r *MongoCredentialRepository) Upsert(ctx context.Context, credential *domain.Credential) error {
	now := time.Now().UTC()
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": credential.Shop}
	update := bson.M{
		"$set": bson.M{
			"accessToken": credential.AccessToken,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Get retrieves the credential for a shop
func (r *MongoCredentialRepository) Get(ctx context.Context, shop string) (*domain.Credential, error) {
	var doc entity.MongoCredentialDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": shop}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return doc.ToDomain(), nil
}

// Delete removes the credential for a shop
func (r *MongoCredentialRepository) Delete(ctx context.Context, shop string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": shop})
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}

// DeleteAll removes every stored credential
func (r *MongoCredentialRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$ne": ""}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete credentials: %w", err)
	}
	return result.DeletedCount, nil
}
