package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	"github.com/lib/pq"
)

const productColumns = `id, title, description, price, images, supplier_id, supplier_name, status, created_at, updated_at`

// PostgresProductRepository implements ProductRepository on Postgres
type PostgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) ports.ProductRepository {
	return &PostgresProductRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var status string
	var images pq.StringArray
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &images,
		&p.SupplierID, &p.SupplierName, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = domain.ApprovalStatus(status)
	p.Images = []string(images)
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}

func (r *PostgresProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	images := product.Images
	if images == nil {
		images = []string{}
	}
	_, err := r.db.ExecContext(ctx, query,
		product.ID, product.Title, product.Description, product.Price, pq.Array(images),
		product.SupplierID, product.SupplierName, string(product.Status),
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *PostgresProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *PostgresProductRepository) ListByStatus(ctx context.Context, status domain.ApprovalStatus) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE status = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, string(status))
}

func (r *PostgresProductRepository) ListBySupplier(ctx context.Context, supplierID string) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE supplier_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, supplierID)
}

func (r *PostgresProductRepository) list(ctx context.Context, query string, arg interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *PostgresProductRepository) Update(ctx context.Context, supplierID string, product *domain.Product) error {
	query := `
		UPDATE products
		SET title = $1, description = $2, price = $3, images = $4, updated_at = NOW()
		WHERE id = $5 AND supplier_id = $6
		RETURNING updated_at
	`
	images := product.Images
	if images == nil {
		images = []string{}
	}
	err := r.db.QueryRowContext(ctx, query,
		product.Title, product.Description, product.Price, pq.Array(images),
		product.ID, supplierID,
	).Scan(&product.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *PostgresProductRepository) Delete(ctx context.Context, supplierID string, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND supplier_id = $2`, id, supplierID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
