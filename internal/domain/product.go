package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalStatus is the moderation state of a supplier product
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
)

// Product is a supplier-owned catalog entry. Price is the supplier's cost price.
type Product struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Images       []string        `json:"images"`
	SupplierID   string          `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	Status       ApprovalStatus  `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OwnedBy reports whether the product belongs to the supplier
func (p *Product) OwnedBy(supplier Supplier) bool {
	return p.SupplierID == supplier.ID
}

// NewProductInput carries the supplier-editable fields of a new product
type NewProductInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Images      []string
}

// Validate checks the input
func (in NewProductInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return NewValidationError("title is required")
	}
	if !in.Price.IsPositive() {
		return NewValidationError("price must be greater than zero")
	}
	return nil
}

// ProductPatch is a partial product update; nil fields are left unchanged
type ProductPatch struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Images      []string
}

// Validate checks the fields that are set
func (p ProductPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return NewValidationError("title cannot be empty")
	}
	if p.Price != nil && !p.Price.IsPositive() {
		return NewValidationError("price must be greater than zero")
	}
	return nil
}

// Apply writes the set fields onto the product
func (p ProductPatch) Apply(product *Product) {
	if p.Title != nil {
		product.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Images != nil {
		product.Images = p.Images
	}
}

// Empty reports whether the patch changes nothing
func (p ProductPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil && p.Images == nil
}
