package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"
)

// MemoryCredentialRepository keeps credentials in process memory.
// It backs the memory store driver and the service tests.
type MemoryCredentialRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Credential
}

func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{items: make(map[string]domain.Credential)}
}

var _ ports.CredentialRepository = (*MemoryCredentialRepository)(nil)

func (r *MemoryCredentialRepository) Upsert(_ context.Context, credential *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	c := *credential
	c.CreatedAt = now
	if existing, ok := r.items[c.Shop]; ok {
		c.CreatedAt = existing.CreatedAt
	}
	c.UpdatedAt = now
	r.items[c.Shop] = c

	credential.CreatedAt, credential.UpdatedAt = c.CreatedAt, c.UpdatedAt
	return nil
}

func (r *MemoryCredentialRepository) Get(_ context.Context, shop string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[shop]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryCredentialRepository) Delete(_ context.Context, shop string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[shop]; !ok {
		return domain.ErrCredentialNotFound
	}
	delete(r.items, shop)
	return nil
}

func (r *MemoryCredentialRepository) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.items))
	r.items = make(map[string]domain.Credential)
	return n, nil
}

// MemoryProductRepository keeps products in process memory
type MemoryProductRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{items: make(map[string]domain.Product)}
}

var _ ports.ProductRepository = (*MemoryProductRepository)(nil)

func copyProduct(p domain.Product) *domain.Product {
	p.Images = append([]string{}, p.Images...)
	return &p
}

func (r *MemoryProductRepository) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[product.ID] = *copyProduct(*product)
	return nil
}

func (r *MemoryProductRepository) Get(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return copyProduct(p), nil
}

func (r *MemoryProductRepository) ListByStatus(_ context.Context, status domain.ApprovalStatus) ([]*domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.Status == status }), nil
}

func (r *MemoryProductRepository) ListBySupplier(_ context.Context, supplierID string) ([]*domain.Product, error) {
	return r.filter(func(p domain.Product) bool { return p.SupplierID == supplierID }), nil
}

func (r *MemoryProductRepository) filter(keep func(domain.Product) bool) []*domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.Product{}
	for _, p := range r.items {
		if keep(p) {
			out = append(out, copyProduct(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryProductRepository) Update(_ context.Context, supplierID string, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[product.ID]
	if !ok || existing.SupplierID != supplierID {
		return domain.ErrProductNotFound
	}
	existing.Title = product.Title
	existing.Description = product.Description
	existing.Price = product.Price
	existing.Images = append([]string{}, product.Images...)
	existing.UpdatedAt = time.Now().UTC()
	r.items[product.ID] = existing

	product.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, supplierID string, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[id]
	if !ok || existing.SupplierID != supplierID {
		return domain.ErrProductNotFound
	}
	delete(r.items, id)
	return nil
}

type pushKey struct {
	productID string
	shop      string
}

// MemoryPushRecordRepository keeps push records in process memory
type MemoryPushRecordRepository struct {
	mu    sync.RWMutex
	items map[pushKey]domain.PushRecord
}

func NewMemoryPushRecordRepository() *MemoryPushRecordRepository {
	return &MemoryPushRecordRepository{items: make(map[pushKey]domain.PushRecord)}
}

var _ ports.PushRecordRepository = (*MemoryPushRecordRepository)(nil)

func (r *MemoryPushRecordRepository) Save(_ context.Context, record *domain.PushRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := *record
	rec.UpdatedAt = time.Now().UTC()
	if rec.PushedAt.IsZero() {
		rec.PushedAt = rec.UpdatedAt
	}
	r.items[pushKey{rec.ProductID, rec.Shop}] = rec

	record.PushedAt, record.UpdatedAt = rec.PushedAt, rec.UpdatedAt
	return nil
}

func (r *MemoryPushRecordRepository) Get(_ context.Context, productID, shop string) (*domain.PushRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.items[pushKey{productID, shop}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *MemoryPushRecordRepository) ListByShop(_ context.Context, shop string) ([]*domain.PushRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*domain.PushRecord{}
	for k, rec := range r.items {
		if k.shop == shop {
			rec := rec
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PushedAt.After(out[j].PushedAt) })
	return out, nil
}

func (r *MemoryPushRecordRepository) FindByExternalID(_ context.Context, shop string, externalProductID uint64) (*domain.PushRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for k, rec := range r.items {
		if k.shop == shop && rec.ExternalProductID == externalProductID {
			rec := rec
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *MemoryPushRecordRepository) UpdateStatus(_ context.Context, productID, shop string, status domain.PushStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pushKey{productID, shop}
	rec, ok := r.items[key]
	if !ok {
		return domain.ErrPushRecordNotFound
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	r.items[key] = rec
	return nil
}
