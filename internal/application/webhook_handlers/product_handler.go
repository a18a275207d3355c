package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-bridge/internal/application"
	"storefront-bridge/internal/domain"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related webhook events
type ProductHandler struct {
	logger zerolog.Logger
	pushes *application.PushService
}

// NewProductHandler creates a new product webhook handler
func NewProductHandler(logger zerolog.Logger, pushes *application.PushService) *ProductHandler {
	return &ProductHandler{
		logger: logger,
		pushes: pushes,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == "products/create" ||
		topic == "products/update" ||
		topic == "products/delete"
}

// Handle processes a product webhook event. Deletions flag the matching push
// record as removed.
func (h *ProductHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var productData struct {
		ID     uint64 `json:"id"`
		Title  string `json:"title"`
		Handle string `json:"handle"`
		Vendor string `json:"vendor"`
	}
	if err := json.Unmarshal(event.Payload, &productData); err != nil {
		return fmt.Errorf("failed to parse product webhook payload: %w", err)
	}

	log := h.logger.With().
		Str("topic", event.Topic).
		Str("shop", event.Shop).
		Uint64("productId", productData.ID).
		Logger()

	if event.Topic != "products/delete" {
		log.Info().Str("title", productData.Title).Str("handle", productData.Handle).Msg("Product changed in shop")
		return nil
	}

	if productData.ID == 0 {
		return domain.NewValidationError("product delete webhook carries no id")
	}
	removed, err := h.pushes.MarkRemoved(ctx, event.Shop, productData.ID)
	if err != nil {
		return err
	}
	if removed {
		log.Info().Msg("Pushed product deleted in shop")
	} else {
		log.Debug().Msg("Deleted product was not pushed from here")
	}
	return nil
}
