package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	"github.com/rs/zerolog"
)

const orderMarkerTTL = time.Minute

// OrderView is a filtered order listing with the tab counts of the full listing
type OrderView struct {
	Orders []domain.Order    `json:"orders"`
	Counts map[string]int    `json:"counts"`
	Method domain.SyncMethod `json:"method"`
}

// OrderService reads orders from Shopify and relays seller status changes.
// Orders are never stored locally.
type OrderService struct {
	credentials *CredentialService
	markers     ports.MarkerStore
	client      ports.ShopifyClient
	metrics     ports.WorkflowMetrics
	limit       int
	connectURL  string
	logger      zerolog.Logger
}

// NewOrderService creates a new order service. connectURL is where sellers
// are sent to reconnect after Reauthenticate.
func NewOrderService(
	credentials *CredentialService,
	markers ports.MarkerStore,
	client ports.ShopifyClient,
	metrics ports.WorkflowMetrics,
	limit int,
	connectURL string,
	logger zerolog.Logger,
) *OrderService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if limit <= 0 {
		limit = 50
	}
	return &OrderService{
		credentials: credentials,
		markers:     markers,
		client:      client,
		metrics:     metrics,
		limit:       limit,
		connectURL:  connectURL,
		logger:      logger.With().Str("service", "orders").Logger(),
	}
}

func (s *OrderService) token(ctx context.Context, shop string) (string, string, error) {
	shop = domain.NormalizeShopDomain(shop)
	if shop == "" {
		return "", "", domain.NewValidationError("shop is required")
	}
	token, err := s.credentials.AccessToken(ctx, shop)
	if err != nil {
		return "", "", err
	}
	return shop, token, nil
}

// FetchOrders reads recent orders through GraphQL and falls back to REST when
// GraphQL fails. When both fail the REST error is returned.
func (s *OrderService) FetchOrders(ctx context.Context, shop string) (*domain.OrderListing, error) {
	shop, token, err := s.token(ctx, shop)
	if err != nil {
		return nil, err
	}

	orders, err := s.client.GetOrdersGraphQL(ctx, shop, token, s.limit)
	s.metrics.IncOrderFetch(string(domain.SyncGraphQL), err)
	if err == nil {
		return &domain.OrderListing{Orders: orders, Method: domain.SyncGraphQL}, nil
	}
	s.logger.Warn().Err(err).Str("shop", shop).Msg("GraphQL order fetch failed, falling back to REST")

	orders, err = s.client.GetOrders(ctx, shop, token, s.limit)
	s.metrics.IncOrderFetch(string(domain.SyncREST), err)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("REST order fetch failed")
		return nil, err
	}
	return &domain.OrderListing{Orders: orders, Method: domain.SyncREST}, nil
}

// FetchOrdersGraphQL reads orders through GraphQL only
func (s *OrderService) FetchOrdersGraphQL(ctx context.Context, shop string) (*domain.OrderListing, error) {
	shop, token, err := s.token(ctx, shop)
	if err != nil {
		return nil, err
	}
	orders, err := s.client.GetOrdersGraphQL(ctx, shop, token, s.limit)
	s.metrics.IncOrderFetch(string(domain.SyncGraphQL), err)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("GraphQL order fetch failed")
		return nil, err
	}
	return &domain.OrderListing{Orders: orders, Method: domain.SyncGraphQL}, nil
}

// FetchOrdersREST reads orders through REST only
func (s *OrderService) FetchOrdersREST(ctx context.Context, shop string) (*domain.OrderListing, error) {
	shop, token, err := s.token(ctx, shop)
	if err != nil {
		return nil, err
	}
	orders, err := s.client.GetOrders(ctx, shop, token, s.limit)
	s.metrics.IncOrderFetch(string(domain.SyncREST), err)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("REST order fetch failed")
		return nil, err
	}
	return &domain.OrderListing{Orders: orders, Method: domain.SyncREST}, nil
}

// ListOrders fetches orders with fallback and applies the status tab and search
func (s *OrderService) ListOrders(ctx context.Context, shop string, filter domain.OrderFilter) (*OrderView, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	listing, err := s.FetchOrders(ctx, shop)
	if err != nil {
		return nil, err
	}
	return &OrderView{
		Orders: domain.FilterOrders(listing.Orders, filter),
		Counts: domain.CountByStatus(listing.Orders),
		Method: listing.Method,
	}, nil
}

// TestConnection checks the shop connection through GraphQL and falls back to REST
func (s *OrderService) TestConnection(ctx context.Context, shop string) (*domain.ConnectionInfo, error) {
	shop, token, err := s.token(ctx, shop)
	if err != nil {
		return nil, err
	}

	info, err := s.client.ShopSummaryGraphQL(ctx, shop, token)
	if err == nil {
		return info, nil
	}
	s.logger.Warn().Err(err).Str("shop", shop).Msg("GraphQL connection test failed, falling back to REST")

	info, err = s.restConnection(ctx, shop, token)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("REST connection test failed")
		return nil, err
	}
	return info, nil
}

// TestConnectionGraphQL checks the shop connection through GraphQL only
func (s *OrderService) TestConnectionGraphQL(ctx context.Context, shop string) (*domain.ConnectionInfo, error) {
	shop, token, err := s.token(ctx, shop)
	if err != nil {
		return nil, err
	}
	return s.client.ShopSummaryGraphQL(ctx, shop, token)
}

// TestConnectionREST checks the shop connection through REST only
func (s *OrderService) TestConnectionREST(ctx context.Context, shop string) (*domain.ConnectionInfo, error) {
	shop, token, err := s.token(ctx, shop)
	if err != nil {
		return nil, err
	}
	return s.restConnection(ctx, shop, token)
}

func (s *OrderService) restConnection(ctx context.Context, shop, token string) (*domain.ConnectionInfo, error) {
	shopInfo, err := s.client.GetShop(ctx, shop, token)
	if err != nil {
		return nil, err
	}
	count, err := s.client.CountOrders(ctx, shop, token)
	if err != nil {
		return nil, err
	}
	return &domain.ConnectionInfo{ShopName: shopInfo.Name, OrderCount: count, Method: domain.SyncREST}, nil
}

// UpdateStatus moves an order to pending, fulfilled or cancelled. Overlapping
// updates of the same order are rejected with a conflict.
func (s *OrderService) UpdateStatus(ctx context.Context, shop, orderID string, status domain.FulfillmentStatus) error {
	id, err := strconv.ParseUint(orderID, 10, 64)
	if err != nil || id == 0 {
		return domain.NewValidationError("invalid order id %q", orderID)
	}
	if !status.Settable() {
		return domain.NewValidationError("invalid fulfillment status %q", status)
	}

	shop, token, err := s.token(ctx, shop)
	if err != nil {
		return err
	}

	key := "order:" + shop + ":" + orderID
	acquired, err := s.markers.Acquire(ctx, key, orderMarkerTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire order marker: %w", err)
	}
	if !acquired {
		return domain.ErrOrderUpdateInFlight
	}
	defer func() {
		if err := s.markers.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to release order marker")
		}
	}()

	if status == domain.FulfillmentCancelled {
		err = s.client.CancelOrder(ctx, shop, token, id)
	} else {
		err = s.client.UpdateOrderStatus(ctx, shop, token, id, status)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Str("order", orderID).Str("status", string(status)).Msg("Failed to update order status")
		return err
	}

	s.logger.Info().Str("shop", shop).Str("order", orderID).Str("status", string(status)).Msg("Order status updated")
	return nil
}

// Reauthenticate drops every stored credential and returns the URL sellers
// use to connect again.
func (s *OrderService) Reauthenticate(ctx context.Context) (string, error) {
	if _, err := s.credentials.ClearAll(ctx); err != nil {
		return "", err
	}
	return s.connectURL, nil
}
