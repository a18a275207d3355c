package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"storefront-bridge/internal/domain"
)

// receiveWebhook verifies, then dispatches a Shopify webhook. A dispatch
// failure answers 500 so Shopify retries the delivery.
func (h *Handler) receiveWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic := r.Header.Get("X-Shopify-Topic")
		if topic == "" {
			writeError(w, h.logger, domain.NewValidationError("Missing X-Shopify-Topic header"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, h.logger, domain.NewValidationError("Failed to read request body"))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(payload))

		if !h.Verifier.VerifyWebhookRequest(r) {
			h.logger.Warn().Str("topic", topic).Msg("Webhook signature verification failed")
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid signature"})
			return
		}

		event := &domain.WebhookEvent{
			Topic:      topic,
			Shop:       domain.NormalizeShopDomain(r.Header.Get("X-Shopify-Shop-Domain")),
			WebhookID:  r.Header.Get("X-Shopify-Webhook-Id"),
			Payload:    payload,
			ReceivedAt: time.Now().UTC(),
		}
		if err := h.Webhooks.Dispatch(r.Context(), event); err != nil {
			h.logger.Error().Err(err).Str("topic", topic).Str("shop", event.Shop).Msg("Failed to dispatch webhook event")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to process webhook event"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
	}
}
