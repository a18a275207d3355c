package application

import (
	"context"
	"errors"
	"fmt"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	"github.com/rs/zerolog"
)

// WebhookHandler processes webhook events for the topics it accepts
type WebhookHandler interface {
	CanHandle(topic string) bool
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}

// WebhookDispatcher routes verified webhook events to the registered handlers
// and fans them out to live subscribers.
type WebhookDispatcher struct {
	handlers  []WebhookHandler
	publisher ports.EventPublisher
	logger    zerolog.Logger
}

// NewWebhookDispatcher creates a new dispatcher. publisher may be nil.
func NewWebhookDispatcher(logger zerolog.Logger, publisher ports.EventPublisher) *WebhookDispatcher {
	return &WebhookDispatcher{
		publisher: publisher,
		logger:    logger.With().Str("component", "webhooks").Logger(),
	}
}

// RegisterHandler adds a handler
func (d *WebhookDispatcher) RegisterHandler(handler WebhookHandler) {
	d.handlers = append(d.handlers, handler)
}

// Dispatch runs every handler accepting the event's topic. All matching
// handlers run even when one fails; the failures are joined.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, event *domain.WebhookEvent) error {
	if event == nil || event.Topic == "" {
		return domain.NewValidationError("webhook topic is required")
	}

	handled := 0
	var errs []error
	for _, h := range d.handlers {
		if !h.CanHandle(event.Topic) {
			continue
		}
		handled++
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("failed to handle %s: %w", event.Topic, err))
		}
	}

	if handled == 0 {
		d.logger.Debug().Str("topic", event.Topic).Str("shop", event.Shop).Msg("No handler for webhook topic")
	}
	if err := errors.Join(errs...); err != nil {
		d.logger.Error().Err(err).Str("topic", event.Topic).Str("shop", event.Shop).Msg("Webhook handling failed")
		return err
	}

	if d.publisher != nil {
		d.publisher.Publish(event)
	}
	return nil
}
