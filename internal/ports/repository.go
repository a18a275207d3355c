package ports

import (
	"context"

	"storefront-bridge/internal/domain"
)

// CredentialRepository defines the interface for Shopify credential persistence.
// AccessToken values passing through it are already encrypted.
type CredentialRepository interface {
	// Upsert creates or replaces the credential for credential.Shop, keeping CreatedAt of an existing row
	Upsert(ctx context.Context, credential *domain.Credential) error
	// Get returns nil, nil when no credential exists for shop
	Get(ctx context.Context, shop string) (*domain.Credential, error)
	// Delete returns domain.ErrCredentialNotFound when nothing was deleted
	Delete(ctx context.Context, shop string) error
	// DeleteAll removes every credential and reports how many were removed
	DeleteAll(ctx context.Context) (int64, error)
}

// ProductRepository defines the interface for supplier product persistence
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	// Get returns nil, nil when the product does not exist
	Get(ctx context.Context, id string) (*domain.Product, error)
	// ListByStatus returns products newest first
	ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]*domain.Product, error)
	// ListBySupplier returns products newest first
	ListBySupplier(ctx context.Context, supplierID string) ([]*domain.Product, error)
	// Update writes the editable fields of a product owned by supplierID.
	// It returns domain.ErrProductNotFound when no product matches both id and owner.
	Update(ctx context.Context, supplierID string, product *domain.Product) error
	// Delete removes a product owned by supplierID.
	// It returns domain.ErrProductNotFound when no product matches both id and owner.
	Delete(ctx context.Context, supplierID string, id string) error
}

// PushRecordRepository defines the interface for push record persistence
type PushRecordRepository interface {
	// Save upserts the record keyed by (ProductID, Shop)
	Save(ctx context.Context, record *domain.PushRecord) error
	// Get returns nil, nil when no record exists
	Get(ctx context.Context, productID, shop string) (*domain.PushRecord, error)
	ListByShop(ctx context.Context, shop string) ([]*domain.PushRecord, error)
	// FindByExternalID returns nil, nil when no record references the external product
	FindByExternalID(ctx context.Context, shop string, externalProductID uint64) (*domain.PushRecord, error)
	// UpdateStatus returns domain.ErrPushRecordNotFound when the record does not exist
	UpdateStatus(ctx context.Context, productID, shop string, status domain.PushStatus) error
}
