package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-bridge/internal/application"
	"storefront-bridge/internal/domain"

	"github.com/rs/zerolog"
)

// AppUninstalledHandler handles app uninstalled webhook events
type AppUninstalledHandler struct {
	logger      zerolog.Logger
	credentials *application.CredentialService
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler
func NewAppUninstalledHandler(logger zerolog.Logger, credentials *application.CredentialService) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:      logger,
		credentials: credentials,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle drops the stored access token of the shop; Shopify has already revoked it
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var shopData struct {
		Domain          string `json:"domain"`
		MyshopifyDomain string `json:"myshopify_domain"`
	}
	if err := json.Unmarshal(event.Payload, &shopData); err != nil {
		return fmt.Errorf("failed to parse app uninstalled webhook payload: %w", err)
	}

	shop := event.Shop
	if shop == "" {
		shop = shopData.MyshopifyDomain
	}
	if shop == "" {
		shop = shopData.Domain
	}

	if err := h.credentials.Remove(ctx, shop); err != nil && !domain.IsNotFound(err) {
		return err
	}

	h.logger.Info().Str("topic", event.Topic).Str("shop", shop).Msg("App uninstalled, credential removed")
	return nil
}
