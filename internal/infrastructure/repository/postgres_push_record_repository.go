package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/infrastructure/database"
	"storefront-bridge/internal/ports"
)

const pushRecordColumns = `product_id, shop, external_product_id, selling_price, status, pushed_at, updated_at`

// PostgresPushRecordRepository implements PushRecordRepository on Postgres
type PostgresPushRecordRepository struct {
	db *sql.DB
}

func NewPostgresPushRecordRepository(db *sql.DB) ports.PushRecordRepository {
	return &PostgresPushRecordRepository{db: db}
}

func scanPushRecord(row rowScanner) (*domain.PushRecord, error) {
	var rec domain.PushRecord
	var externalID int64
	var status string
	err := row.Scan(&rec.ProductID, &rec.Shop, &externalID, &rec.SellingPrice, &status, &rec.PushedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.ExternalProductID = uint64(externalID)
	rec.Status = domain.PushStatus(status)
	return &rec, nil
}

// Save upserts the record. Concurrent saves for the same key are retried
// on serialization failures.
func (r *PostgresPushRecordRepository) Save(ctx context.Context, record *domain.PushRecord) error {
	query := `
		INSERT INTO product_pushes (` + pushRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6::timestamptz, NOW()), NOW())
		ON CONFLICT (product_id, shop) DO UPDATE
		SET external_product_id = EXCLUDED.external_product_id,
		    selling_price = EXCLUDED.selling_price,
		    status = EXCLUDED.status,
		    pushed_at = EXCLUDED.pushed_at,
		    updated_at = NOW()
		RETURNING pushed_at, updated_at
	`
	var pushedAt interface{}
	if !record.PushedAt.IsZero() {
		pushedAt = record.PushedAt
	}

	err := database.WithRetry(ctx, r.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, query,
			record.ProductID, record.Shop, int64(record.ExternalProductID),
			record.SellingPrice, string(record.Status), pushedAt,
		).Scan(&record.PushedAt, &record.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to save push record: %w", err)
	}
	return nil
}

func (r *PostgresPushRecordRepository) Get(ctx context.Context, productID, shop string) (*domain.PushRecord, error) {
	query := `SELECT ` + pushRecordColumns + ` FROM product_pushes WHERE product_id = $1 AND shop = $2`
	return r.getOne(ctx, query, productID, shop)
}

func (r *PostgresPushRecordRepository) FindByExternalID(ctx context.Context, shop string, externalProductID uint64) (*domain.PushRecord, error) {
	query := `SELECT ` + pushRecordColumns + ` FROM product_pushes WHERE shop = $1 AND external_product_id = $2`
	return r.getOne(ctx, query, shop, int64(externalProductID))
}

func (r *PostgresPushRecordRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.PushRecord, error) {
	rec, err := scanPushRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get push record: %w", err)
	}
	return rec, nil
}

func (r *PostgresPushRecordRepository) ListByShop(ctx context.Context, shop string) ([]*domain.PushRecord, error) {
	query := `SELECT ` + pushRecordColumns + ` FROM product_pushes WHERE shop = $1 ORDER BY pushed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, shop)
	if err != nil {
		return nil, fmt.Errorf("failed to list push records: %w", err)
	}
	defer rows.Close()

	records := []*domain.PushRecord{}
	for rows.Next() {
		rec, err := scanPushRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan push record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list push records: %w", err)
	}
	return records, nil
}

func (r *PostgresPushRecordRepository) UpdateStatus(ctx context.Context, productID, shop string, status domain.PushStatus) error {
	query := `UPDATE product_pushes SET status = $1, updated_at = NOW() WHERE product_id = $2 AND shop = $3`

	result, err := r.db.ExecContext(ctx, query, string(status), productID, shop)
	if err != nil {
		return fmt.Errorf("failed to update push record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update push record: %w", err)
	}
	if n == 0 {
		return domain.ErrPushRecordNotFound
	}
	return nil
}
