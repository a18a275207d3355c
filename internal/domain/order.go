package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FulfillmentStatus is the simplified order status shown to sellers
type FulfillmentStatus string

const (
	FulfillmentPending   FulfillmentStatus = "pending"
	FulfillmentFulfilled FulfillmentStatus = "fulfilled"
	FulfillmentPartial   FulfillmentStatus = "partial"
	FulfillmentCancelled FulfillmentStatus = "cancelled"
)

// StatusAll disables status filtering
const StatusAll = "all"

// Settable reports whether sellers may move an order to this status
func (s FulfillmentStatus) Settable() bool {
	switch s {
	case FulfillmentPending, FulfillmentFulfilled, FulfillmentCancelled:
		return true
	}
	return false
}

// SyncMethod names the platform API that produced an order listing
type SyncMethod string

const (
	SyncGraphQL SyncMethod = "graphql"
	SyncREST    SyncMethod = "rest"
)

// LineItem is one order line
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	VariantID string          `json:"variant_id,omitempty"`
	ProductID string          `json:"product_id,omitempty"`
}

// Order is an order read from the platform. It is never persisted locally.
type Order struct {
	ID              string            `json:"id"`
	OrderNumber     int               `json:"order_number"`
	Name            string            `json:"name"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	Status          FulfillmentStatus `json:"status"`
	FinancialStatus string            `json:"financial_status"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Date            time.Time         `json:"date"`
	LineItems       []LineItem        `json:"line_items"`
	Tags            []string          `json:"tags"`
	Note            string            `json:"note,omitempty"`
}

// OrderFilter is the status tab and free-text search applied to a listing
type OrderFilter struct {
	Status string
	Search string
}

// Validate rejects a status tab other than "all" or one of the fulfillment statuses
func (f OrderFilter) Validate() error {
	switch FulfillmentStatus(f.Status) {
	case "", StatusAll, FulfillmentPending, FulfillmentFulfilled, FulfillmentPartial, FulfillmentCancelled:
		return nil
	}
	return NewValidationError("unknown status filter %q", f.Status)
}

// Matches reports whether the order passes the filter. The search term is
// matched as typed, surrounding spaces included.
func (f OrderFilter) Matches(o Order) bool {
	if f.Status != "" && f.Status != StatusAll && string(o.Status) != f.Status {
		return false
	}
	term := f.Search
	if term == "" {
		return true
	}
	lower := strings.ToLower(term)
	return strings.Contains(strings.ToLower(o.ID), lower) ||
		strings.Contains(strings.ToLower(o.Name), lower) ||
		strings.Contains(strings.ToLower(o.CustomerName), lower) ||
		strings.Contains(strings.ToLower(o.CustomerEmail), lower) ||
		strings.Contains(strconv.Itoa(o.OrderNumber), term)
}

// FilterOrders returns the orders matching the filter in their original order
func FilterOrders(orders []Order, filter OrderFilter) []Order {
	filtered := make([]Order, 0, len(orders))
	for _, o := range orders {
		if filter.Matches(o) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// CountByStatus returns the tab counts for a listing, keyed by status plus "all"
func CountByStatus(orders []Order) map[string]int {
	counts := map[string]int{
		StatusAll:                    len(orders),
		string(FulfillmentPending):   0,
		string(FulfillmentFulfilled): 0,
		string(FulfillmentPartial):   0,
		string(FulfillmentCancelled): 0,
	}
	for _, o := range orders {
		counts[string(o.Status)]++
	}
	return counts
}

// OrderListing is a fetched set of orders with the API that produced it
type OrderListing struct {
	Orders []Order    `json:"orders"`
	Method SyncMethod `json:"method"`
}

// ConnectionInfo is the result of a connection test against a shop
type ConnectionInfo struct {
	ShopName   string     `json:"shop_name"`
	OrderCount int        `json:"order_count"`
	Method     SyncMethod `json:"method"`
}
