package repository

import (
	"context"
	"testing"
	"time"

	"storefront-bridge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCredentialRepository(t *testing.T) {
	exerciseCredentialRepository(t, NewMemoryCredentialRepository())
}

func TestMemoryProductRepository(t *testing.T) {
	exerciseProductRepository(t, NewMemoryProductRepository())
}

func TestMemoryPushRecordRepository(t *testing.T) {
	exercisePushRecordRepository(t, NewMemoryProductRepository(), NewMemoryPushRecordRepository())
}

func TestMemoryProductRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryProductRepository()
	ctx := context.Background()

	p := newTestProduct("Acme", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, p))

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	got.Images[0] = "mutated"
	got.Status = domain.ApprovalPending

	again, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.png", again.Images[0])
	assert.Equal(t, domain.ApprovalApproved, again.Status)
}
