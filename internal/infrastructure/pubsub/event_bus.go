package pubsub

import (
	"context"
	"slices"
	"sync"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const subscriptionBuffer = 16

// Filter narrows a subscription. Empty fields match everything.
type Filter struct {
	Shop   string
	Topics []string
}

func (f Filter) matches(event *domain.WebhookEvent) bool {
	if f.Shop != "" && event.Shop != f.Shop {
		return false
	}
	return len(f.Topics) == 0 || slices.Contains(f.Topics, event.Topic)
}

// Subscription receives events until its context ends. Events is closed on
// unsubscribe.
type Subscription struct {
	ID     string
	Events <-chan *domain.WebhookEvent

	events chan *domain.WebhookEvent
	filter Filter
}

// EventBus fans webhook events out to in-process subscribers. Slow
// subscribers lose events rather than block publishers.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	logger zerolog.Logger
}

var _ ports.EventPublisher = (*EventBus)(nil)

// NewEventBus creates a new event bus
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{
		subs:   make(map[string]*Subscription),
		logger: logger.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a subscriber that is removed when ctx is done
func (b *EventBus) Subscribe(ctx context.Context, filter Filter) *Subscription {
	events := make(chan *domain.WebhookEvent, subscriptionBuffer)
	sub := &Subscription{
		ID:     uuid.NewString(),
		Events: events,
		events: events,
		filter: filter,
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()

	b.logger.Debug().Str("subscription", sub.ID).Str("shop", filter.Shop).Msg("Subscription created")

	go func() {
		<-ctx.Done()
		b.Unsubscribe(sub.ID)
	}()
	return sub
}

// Unsubscribe removes a subscriber and closes its channel
func (b *EventBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.events)
	b.logger.Debug().Str("subscription", id).Msg("Subscription removed")
}

// Publish delivers the event to every matching subscriber without blocking
func (b *EventBus) Publish(event *domain.WebhookEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, sub := range b.subs {
		if !sub.filter.matches(event) {
			continue
		}
		select {
		case sub.events <- event:
			delivered++
		default:
			b.logger.Warn().Str("subscription", sub.ID).Str("topic", event.Topic).Msg("Subscriber buffer full, dropping event")
		}
	}

	if delivered > 0 {
		b.logger.Debug().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Int("subscribers", delivered).
			Msg("Published webhook event")
	}
}

// Subscribers returns the number of active subscriptions
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
