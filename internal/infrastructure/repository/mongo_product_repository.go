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

// MongoProductRepository implements ProductRepository using MongoDB
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a new MongoDB product repository
func NewMongoProductRepository(db *mongo.Database) ports.ProductRepository {
	return &MongoProductRepository{
		collection: db.Collection(productsCollection),
	}
}

// Create inserts a new product
func (r *MongoProductRepository) Create(ctx context.Context, product *domain.Product) error {
	doc := entity.MongoProductDocFromDomain(product)
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Get retrieves a product by id
func (r *MongoProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var doc entity.MongoProductDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.ToDomain(), nil
}

// ListByStatus lists products with the given status, newest first
func (r *MongoProductRepository) ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]*domain.Product, error) {
	return r.find(ctx, bson.M{"status": string(status)})
}

// ListBySupplier lists a supplier's products, newest first
func (r *MongoProductRepository) ListBySupplier(ctx context.Context, supplierID string) ([]*domain.Product, error) {
	return r.find(ctx, bson.M{"supplierId": supplierID})
}

func (r *MongoProductRepository) find(ctx context.Context, filter bson.M) ([]*domain.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []entity.MongoProductDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].ToDomain())
	}
	return products, nil
}

// Update writes the editable fields of a product the supplier owns
func (r *MongoProductRepository) Update(ctx context.Context, supplierID string, product *domain.Product) error {
	doc := entity.MongoProductDocFromDomain(product)
	filter := bson.M{"_id": product.ID, "supplierId": supplierID}
	update := bson.M{
		"$set": bson.M{
			"title":       doc.Title,
			"description": doc.Description,
			"price":       doc.Price,
			"images":      doc.Images,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Delete removes a product the supplier owns
func (r *MongoProductRepository) Delete(ctx context.Context, supplierID string, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "supplierId": supplierID})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
