package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront-bridge/internal/domain"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related webhook events
type OrderHandler struct {
	logger zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	return strings.HasPrefix(topic, "orders/")
}

// Handle logs the order event. Orders are always read live from Shopify, so
// nothing is stored.
func (h *OrderHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var orderData struct {
		ID                uint64  `json:"id"`
		OrderNumber       int     `json:"order_number"`
		TotalPrice        string  `json:"total_price"`
		FinancialStatus   string  `json:"financial_status"`
		FulfillmentStatus *string `json:"fulfillment_status"`
	}
	if err := json.Unmarshal(event.Payload, &orderData); err != nil {
		return fmt.Errorf("failed to parse order webhook payload: %w", err)
	}

	fulfillment := "unfulfilled"
	if orderData.FulfillmentStatus != nil {
		fulfillment = *orderData.FulfillmentStatus
	}

	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Uint64("orderId", orderData.ID).
		Int("orderNumber", orderData.OrderNumber).
		Str("totalPrice", orderData.TotalPrice).
		Str("financialStatus", orderData.FinancialStatus).
		Str("fulfillmentStatus", fulfillment).
		Msg("Processing order webhook event")

	return nil
}
