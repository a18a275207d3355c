package repository

import (
	"context"
	"testing"
	"time"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/infrastructure/repository/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoCredentialRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mt.Run("upsert", func(mt *mtest.T) {
		repo := NewMongoCredentialRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Upsert(ctx, &domain.Credential{Shop: "acme.myshopify.com", AccessToken: "enc"}))
	})

	mt.Run("get existing", func(mt *mtest.T) {
		repo := NewMongoCredentialRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "storefront.shopify_tokens", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "acme.myshopify.com"},
			{Key: "accessToken", Value: "enc"},
			{Key: "createdAt", Value: now},
			{Key: "updatedAt", Value: now},
		}))

		cred, err := repo.Get(ctx, "acme.myshopify.com")
		require.NoError(mt, err)
		require.NotNil(mt, cred)
		assert.Equal(mt, "enc", cred.AccessToken)
		assert.Equal(mt, "acme.myshopify.com", cred.Shop)
	})

	mt.Run("get missing returns nil", func(mt *mtest.T) {
		repo := NewMongoCredentialRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "storefront.shopify_tokens", mtest.FirstBatch))

		cred, err := repo.Get(ctx, "none.myshopify.com")
		require.NoError(mt, err)
		assert.Nil(mt, cred)
	})

	mt.Run("delete missing is not found", func(mt *mtest.T) {
		repo := NewMongoCredentialRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, repo.Delete(ctx, "none.myshopify.com"), domain.ErrCredentialNotFound)
	})

	mt.Run("delete all", func(mt *mtest.T) {
		repo := NewMongoCredentialRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		n, err := repo.DeleteAll(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)
	})
}

func productDoc(id string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: "Mug"},
		{Key: "description", Value: "Ceramic"},
		{Key: "price", Value: entity.DecimalToMongo(decimal.RequireFromString("9.99"))},
		{Key: "images", Value: bson.A{"https://cdn/a.png"}},
		{Key: "supplierId", Value: "Acme"},
		{Key: "supplierName", Value: "Acme"},
		{Key: "status", Value: "approved"},
		{Key: "createdAt", Value: created},
		{Key: "updatedAt", Value: created},
	}
}

func TestMongoProductRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ns := "storefront.products"

	mt.Run("create", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(ctx, &domain.Product{ID: "p1", Title: "Mug", Price: decimal.NewFromInt(5)})
		require.NoError(mt, err)
	})

	mt.Run("create surfaces write errors", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		err := repo.Create(ctx, &domain.Product{ID: "p1"})
		assert.Error(mt, err)
	})

	mt.Run("get decodes decimal price", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, productDoc("p1", now)))

		p, err := repo.Get(ctx, "p1")
		require.NoError(mt, err)
		require.NotNil(mt, p)
		assert.Equal(mt, "9.99", p.Price.String())
		assert.Equal(mt, domain.ApprovalApproved, p.Status)
	})

	mt.Run("list by supplier", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, productDoc("p2", now.Add(time.Hour)), productDoc("p1", now)),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		list, err := repo.ListBySupplier(ctx, "Acme")
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, "p2", list[0].ID)
	})

	mt.Run("update of foreign product is not found", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.Update(ctx, "Other", &domain.Product{ID: "p1", Title: "x"})
		assert.ErrorIs(mt, err, domain.ErrProductNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoProductRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, repo.Delete(ctx, "Acme", "p1"))
	})
}

func TestMongoPushRecordRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ns := "storefront.product_pushes"

	mt.Run("save", func(mt *mtest.T) {
		repo := NewMongoPushRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		rec := &domain.PushRecord{ProductID: "p1", Shop: "acme.myshopify.com", ExternalProductID: 42, Status: domain.PushPushed}
		require.NoError(mt, repo.Save(ctx, rec))
	})

	mt.Run("find by external id", func(mt *mtest.T) {
		repo := NewMongoPushRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "productId", Value: "p1"},
			{Key: "shop", Value: "acme.myshopify.com"},
			{Key: "externalProductId", Value: int64(42)},
			{Key: "sellingPrice", Value: entity.DecimalToMongo(decimal.NewFromInt(15))},
			{Key: "status", Value: "pushed"},
			{Key: "pushedAt", Value: now},
			{Key: "updatedAt", Value: now},
		}))

		rec, err := repo.FindByExternalID(ctx, "acme.myshopify.com", 42)
		require.NoError(mt, err)
		require.NotNil(mt, rec)
		assert.Equal(mt, uint64(42), rec.ExternalProductID)
		assert.Equal(mt, "15", rec.SellingPrice.String())
	})

	mt.Run("update status of missing record", func(mt *mtest.T) {
		repo := NewMongoPushRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.UpdateStatus(ctx, "p9", "acme.myshopify.com", domain.PushRemoved)
		assert.ErrorIs(mt, err, domain.ErrPushRecordNotFound)
	})

	mt.Run("command errors are wrapped", func(mt *mtest.T) {
		repo := NewMongoPushRecordRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad"}))

		_, err := repo.ListByShop(ctx, "acme.myshopify.com")
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to list push records")
	})
}
