package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/infrastructure/pubsub"
)

const eventHeartbeat = 25 * time.Second

type streamedEvent struct {
	Topic      string          `json:"topic"`
	Shop       string          `json:"shop"`
	WebhookID  string          `json:"webhook_id,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// streamEvents relays webhook events for ?shop= as server-sent events
func (h *Handler) streamEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := domain.NormalizeShopDomain(shopParam(r))
		if shop == "" {
			writeError(w, h.logger, domain.NewValidationError("shop is required"))
			return
		}

		rc := http.NewResponseController(w)
		// the server write timeout would otherwise end the stream
		_ = rc.SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			h.logger.Warn().Err(err).Msg("Streaming not supported by response writer")
			return
		}

		sub := h.Events.Subscribe(r.Context(), pubsub.Filter{Shop: shop})
		ticker := time.NewTicker(eventHeartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			case event, ok := <-sub.Events:
				if !ok {
					return
				}
				payload := json.RawMessage(event.Payload)
				if !json.Valid(payload) {
					payload = json.RawMessage("null")
				}
				data, err := json.Marshal(streamedEvent{
					Topic:      event.Topic,
					Shop:       event.Shop,
					WebhookID:  event.WebhookID,
					ReceivedAt: event.ReceivedAt,
					Payload:    payload,
				})
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Topic, data)
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
