package entity

import (
	"time"

	"storefront-bridge/internal/domain"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoCredentialDoc represents a Shopify credential in MongoDB
type MongoCredentialDoc struct {
	Shop           string    `bson:"_id"`
	EncryptedToken string    `bson:"accessToken"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoCredentialDoc) ToDomain() *domain.Credential {
	return &domain.Credential{
		Shop:        d.Shop,
		AccessToken: d.EncryptedToken,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoProductDoc represents a supplier product in MongoDB
type MongoProductDoc struct {
	ID           string               `bson:"_id"`
	Title        string               `bson:"title"`
	Description  string               `bson:"description"`
	Price        primitive.Decimal128 `bson:"price"`
	Images       []string             `bson:"images"`
	SupplierID   string               `bson:"supplierId"`
	SupplierName string               `bson:"supplierName"`
	Status       string               `bson:"status"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoProductDoc) ToDomain() *domain.Product {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &domain.Product{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		Price:        DecimalFromMongo(d.Price),
		Images:       images,
		SupplierID:   d.SupplierID,
		SupplierName: d.SupplierName,
		Status:       domain.ApprovalStatus(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoProductDocFromDomain converts a domain entity to a MongoDB document
func MongoProductDocFromDomain(p *domain.Product) *MongoProductDoc {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return &MongoProductDoc{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Price:        DecimalToMongo(p.Price),
		Images:       images,
		SupplierID:   p.SupplierID,
		SupplierName: p.SupplierName,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// MongoPushRecordDoc represents a push record in MongoDB
type MongoPushRecordDoc struct {
	ProductID         string               `bson:"productId"`
	Shop              string               `bson:"shop"`
	ExternalProductID int64                `bson:"externalProductId"`
	SellingPrice      primitive.Decimal128 `bson:"sellingPrice"`
	Status            string               `bson:"status"`
	PushedAt          time.Time            `bson:"pushedAt"`
	UpdatedAt         time.Time            `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoPushRecordDoc) ToDomain() *domain.PushRecord {
	return &domain.PushRecord{
		ProductID:         d.ProductID,
		Shop:              d.Shop,
		ExternalProductID: uint64(d.ExternalProductID),
		SellingPrice:      DecimalFromMongo(d.SellingPrice),
		Status:            domain.PushStatus(d.Status),
		PushedAt:          d.PushedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// MongoPushRecordDocFromDomain converts a domain entity to a MongoDB document
func MongoPushRecordDocFromDomain(r *domain.PushRecord) *MongoPushRecordDoc {
	return &MongoPushRecordDoc{
		ProductID:         r.ProductID,
		Shop:              r.Shop,
		ExternalProductID: int64(r.ExternalProductID),
		SellingPrice:      DecimalToMongo(r.SellingPrice),
		Status:            string(r.Status),
		PushedAt:          r.PushedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// DecimalToMongo converts a decimal to BSON Decimal128
func DecimalToMongo(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

// DecimalFromMongo converts BSON Decimal128 to a decimal
func DecimalFromMongo(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
