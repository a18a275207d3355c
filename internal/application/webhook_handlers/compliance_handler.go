package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-bridge/internal/application"
	"storefront-bridge/internal/domain"

	"github.com/rs/zerolog"
)

// ComplianceHandler answers Shopify's mandatory privacy webhooks. No customer
// data is stored here, so only shop/redact has anything to erase.
type ComplianceHandler struct {
	logger      zerolog.Logger
	credentials *application.CredentialService
}

// NewComplianceHandler creates a new compliance webhook handler
func NewComplianceHandler(logger zerolog.Logger, credentials *application.CredentialService) *ComplianceHandler {
	return &ComplianceHandler{
		logger:      logger,
		credentials: credentials,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ComplianceHandler) CanHandle(topic string) bool {
	return topic == "customers/data_request" ||
		topic == "customers/redact" ||
		topic == "shop/redact"
}

// Handle processes a compliance webhook event
func (h *ComplianceHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var payload struct {
		ShopDomain string `json:"shop_domain"`
		Customer   struct {
			ID    uint64 `json:"id"`
			Email string `json:"email"`
		} `json:"customer"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to parse compliance webhook payload: %w", err)
	}

	shop := event.Shop
	if shop == "" {
		shop = payload.ShopDomain
	}

	switch event.Topic {
	case "shop/redact":
		if err := h.credentials.Remove(ctx, shop); err != nil && !domain.IsNotFound(err) {
			return err
		}
		h.logger.Info().Str("shop", shop).Msg("Shop redacted")
	default:
		h.logger.Info().
			Str("topic", event.Topic).
			Str("shop", shop).
			Uint64("customerId", payload.Customer.ID).
			Msg("Customer privacy request acknowledged, no customer data held")
	}
	return nil
}
