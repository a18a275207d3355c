package domain

import (
	"context"
	"strings"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const supplierKey contextKey = "supplier"

// Supplier is the verified identity of a supplier session. The supplier name
// doubles as its id.
type Supplier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewSupplier builds a supplier identity from a display name
func NewSupplier(name string) (Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Supplier{}, NewValidationError("supplier name is required")
	}
	return Supplier{ID: name, Name: name}, nil
}

// WithSupplier adds the verified supplier to the context
func WithSupplier(ctx context.Context, supplier Supplier) context.Context {
	return context.WithValue(ctx, supplierKey, supplier)
}

// SupplierFromContext extracts the verified supplier from the context
func SupplierFromContext(ctx context.Context) (Supplier, bool) {
	supplier, ok := ctx.Value(supplierKey).(Supplier)
	return supplier, ok && supplier.ID != ""
}
