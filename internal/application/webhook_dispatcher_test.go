package application

import (
	"context"
	"errors"
	"testing"

	"storefront-bridge/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubHandler struct {
	topic string
	err   error
	seen  []string
}

func (h *stubHandler) CanHandle(topic string) bool { return topic == h.topic }

func (h *stubHandler) Handle(_ context.Context, event *domain.WebhookEvent) error {
	h.seen = append(h.seen, event.Shop)
	return h.err
}

type stubPublisher struct {
	events []*domain.WebhookEvent
}

func (p *stubPublisher) Publish(event *domain.WebhookEvent) {
	p.events = append(p.events, event)
}

func TestDispatchRoutesByTopic(t *testing.T) {
	pub := &stubPublisher{}
	d := NewWebhookDispatcher(zerolog.Nop(), pub)
	orders := &stubHandler{topic: "orders/create"}
	products := &stubHandler{topic: "products/delete"}
	d.RegisterHandler(orders)
	d.RegisterHandler(products)

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "orders/create", Shop: testShop})
	assert.NoError(t, err)
	assert.Equal(t, []string{testShop}, orders.seen)
	assert.Empty(t, products.seen)
	assert.Len(t, pub.events, 1)

	// unknown topics are accepted and still published
	assert.NoError(t, d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "carts/update"}))
	assert.Len(t, pub.events, 2)
}

func TestDispatchJoinsFailures(t *testing.T) {
	pub := &stubPublisher{}
	d := NewWebhookDispatcher(zerolog.Nop(), pub)
	failing := &stubHandler{topic: "app/uninstalled", err: errors.New("boom")}
	healthy := &stubHandler{topic: "app/uninstalled"}
	d.RegisterHandler(failing)
	d.RegisterHandler(healthy)

	err := d.Dispatch(context.Background(), &domain.WebhookEvent{Topic: "app/uninstalled", Shop: testShop})
	assert.ErrorContains(t, err, "boom")
	assert.Len(t, healthy.seen, 1)
	assert.Empty(t, pub.events)

	assert.ErrorIs(t, d.Dispatch(context.Background(), &domain.WebhookEvent{}), domain.ErrValidation)
}
