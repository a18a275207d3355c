package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PushStatus is the per product and shop push state
type PushStatus string

const (
	PushNotPushed PushStatus = "not_pushed"
	PushPushing   PushStatus = "pushing"
	PushPushed    PushStatus = "pushed"
	PushRemoved   PushStatus = "removed"
	PushFailed    PushStatus = "failed"
)

// PushRecord links a local product to the product created for it in a shop
type PushRecord struct {
	ProductID         string          `json:"product_id"`
	Shop              string          `json:"shop"`
	ExternalProductID uint64          `json:"external_product_id"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	Status            PushStatus      `json:"status"`
	PushedAt          time.Time       `json:"pushed_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Active reports whether the record still refers to a live external product
func (r *PushRecord) Active() bool {
	return r.Status == PushPushed
}

// PushResult is the outcome of pushing one product
type PushResult struct {
	ProductID         string          `json:"product_id"`
	Status            PushStatus      `json:"status"`
	ExternalProductID uint64          `json:"external_product_id,omitempty"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	Error             string          `json:"error,omitempty"`
}

// SellerProduct is an approved product annotated with its push state for one shop
type SellerProduct struct {
	Product
	Quote             Quote      `json:"quote"`
	PushStatus        PushStatus `json:"push_status"`
	ExternalProductID uint64     `json:"external_product_id,omitempty"`
}

// ReconcileReport summarises a reconciliation pass
type ReconcileReport struct {
	Checked int      `json:"checked"`
	Removed []string `json:"removed"`
}
