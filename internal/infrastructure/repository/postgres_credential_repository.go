package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"
)

// PostgresCredentialRepository implements CredentialRepository on Postgres
type PostgresCredentialRepository struct {
	db *sql.DB
}

func NewPostgresCredentialRepository(db *sql.DB) ports.CredentialRepository {
	return &PostgresCredentialRepository{db: db}
}

func (r *PostgresCredentialRepository) Upsert(ctx context.Context, credential *domain.Credential) error {
	query := `
		INSERT INTO shopify_tokens (shop, access_token, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (shop) DO UPDATE
		SET access_token = EXCLUDED.access_token, updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, credential.Shop, credential.AccessToken).
		Scan(&credential.CreatedAt, &credential.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (r *PostgresCredentialRepository) Get(ctx context.Context, shop string) (*domain.Credential, error) {
	query := `SELECT shop, access_token, created_at, updated_at FROM shopify_tokens WHERE shop = $1`

	var c domain.Credential
	err := r.db.QueryRowContext(ctx, query, shop).Scan(&c.Shop, &c.AccessToken, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &c, nil
}

func (r *PostgresCredentialRepository) Delete(ctx context.Context, shop string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shopify_tokens WHERE shop = $1`, shop)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if n == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}

func (r *PostgresCredentialRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shopify_tokens`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete credentials: %w", err)
	}
	return result.RowsAffected()
}
