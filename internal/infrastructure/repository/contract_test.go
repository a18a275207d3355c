package repository

import (
	"context"
	"testing"
	"time"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The exercise* helpers describe behaviour every repository implementation
// must share. They run against the memory store always and against Postgres
// in the integration test.

func exerciseCredentialRepository(t *testing.T, repo ports.CredentialRepository) {
	ctx := context.Background()
	shop := "acme-" + uuid.NewString()[:8] + ".myshopify.com"

	got, err := repo.Get(ctx, shop)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Upsert(ctx, &domain.Credential{Shop: shop, AccessToken: "first"}))
	first, err := repo.Get(ctx, shop)
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, repo.Upsert(ctx, &domain.Credential{Shop: shop, AccessToken: "second"}))
	second, err := repo.Get(ctx, shop)
	require.NoError(t, err)
	assert.Equal(t, "second", second.AccessToken)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt), "created_at survives an upsert")

	require.NoError(t, repo.Delete(ctx, shop))
	assert.ErrorIs(t, repo.Delete(ctx, shop), domain.ErrCredentialNotFound)

	require.NoError(t, repo.Upsert(ctx, &domain.Credential{Shop: shop, AccessToken: "x"}))
	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}

func newTestProduct(supplier string, created time.Time) *domain.Product {
	return &domain.Product{
		ID:           uuid.NewString(),
		Title:        "Mug",
		Description:  "Ceramic",
		Price:        decimal.RequireFromString("9.99"),
		Images:       []string{"https://cdn/a.png"},
		SupplierID:   supplier,
		SupplierName: supplier,
		Status:       domain.ApprovalApproved,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func exerciseProductRepository(t *testing.T, repo ports.ProductRepository) {
	ctx := context.Background()
	supplier := "Acme " + uuid.NewString()[:8]
	base := time.Now().UTC().Truncate(time.Millisecond)

	older := newTestProduct(supplier, base)
	newer := newTestProduct(supplier, base.Add(time.Minute))
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	got, err := repo.Get(ctx, older.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, older.Price.Equal(got.Price))
	assert.Equal(t, older.Images, got.Images)

	missing, err := repo.Get(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := repo.ListBySupplier(ctx, supplier)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	approved, err := repo.ListByStatus(ctx, domain.ApprovalApproved)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(approved), 2)

	got.Title = "Big Mug"
	assert.ErrorIs(t, repo.Update(ctx, "someone else", got), domain.ErrProductNotFound)
	require.NoError(t, repo.Update(ctx, supplier, got))
	updated, err := repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "Big Mug", updated.Title)
	assert.Equal(t, supplier, updated.SupplierID)

	assert.ErrorIs(t, repo.Delete(ctx, "someone else", older.ID), domain.ErrProductNotFound)
	require.NoError(t, repo.Delete(ctx, supplier, older.ID))
	assert.ErrorIs(t, repo.Delete(ctx, supplier, older.ID), domain.ErrProductNotFound)
}

func exercisePushRecordRepository(t *testing.T, products ports.ProductRepository, repo ports.PushRecordRepository) {
	ctx := context.Background()
	shop := "acme-" + uuid.NewString()[:8] + ".myshopify.com"
	product := newTestProduct("Acme", time.Now().UTC())
	require.NoError(t, products.Create(ctx, product))

	none, err := repo.Get(ctx, product.ID, shop)
	require.NoError(t, err)
	assert.Nil(t, none)

	rec := &domain.PushRecord{
		ProductID:         product.ID,
		Shop:              shop,
		ExternalProductID: 987654321,
		SellingPrice:      decimal.NewFromInt(15),
		Status:            domain.PushPushed,
	}
	require.NoError(t, repo.Save(ctx, rec))
	assert.False(t, rec.PushedAt.IsZero())

	byExternal, err := repo.FindByExternalID(ctx, shop, 987654321)
	require.NoError(t, err)
	require.NotNil(t, byExternal)
	assert.Equal(t, product.ID, byExternal.ProductID)

	rec.ExternalProductID = 111
	require.NoError(t, repo.Save(ctx, rec))
	list, err := repo.ListByShop(ctx, shop)
	require.NoError(t, err)
	require.Len(t, list, 1, "save upserts on product and shop")
	assert.Equal(t, uint64(111), list[0].ExternalProductID)

	require.NoError(t, repo.UpdateStatus(ctx, product.ID, shop, domain.PushRemoved))
	got, err := repo.Get(ctx, product.ID, shop)
	require.NoError(t, err)
	assert.Equal(t, domain.PushRemoved, got.Status)
	assert.False(t, got.Active())

	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.NewString(), shop, domain.PushRemoved), domain.ErrPushRecordNotFound)
}
