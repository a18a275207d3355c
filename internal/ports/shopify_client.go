package ports

import (
	"context"
	"net/http"
	"net/url"

	"storefront-bridge/internal/domain"

	shopify "github.com/bold-commerce/go-shopify/v4"
)

// ShopifyClient defines the interface for Shopify API operations
type ShopifyClient interface {
	// Authentication
	GenerateAuthURL(shop string, redirectURI string, state string) (string, error)
	ExchangeToken(ctx context.Context, shop string, code string, redirectURI string) (string, error)
	VerifyAuthorizationURL(u *url.URL) (bool, error)
	VerifyWebhookRequest(r *http.Request) bool

	// Shop API
	GetShop(ctx context.Context, shop string, accessToken string) (*shopify.Shop, error)
	// ValidateToken reports false, nil when Shopify rejects the token as revoked
	ValidateToken(ctx context.Context, shop string, accessToken string) (bool, error)
	CountOrders(ctx context.Context, shop string, accessToken string) (int, error)
	// ShopSummaryGraphQL reads the shop name and order count in one GraphQL call
	ShopSummaryGraphQL(ctx context.Context, shop string, accessToken string) (*domain.ConnectionInfo, error)

	// Product API
	GetProduct(ctx context.Context, shop string, accessToken string, productID uint64) (*shopify.Product, error)
	CreateProduct(ctx context.Context, shop string, accessToken string, product *shopify.Product) (*shopify.Product, error)

	// Order API
	GetOrdersGraphQL(ctx context.Context, shop string, accessToken string, limit int) ([]domain.Order, error)
	GetOrders(ctx context.Context, shop string, accessToken string, limit int) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, shop string, accessToken string, orderID uint64, status domain.FulfillmentStatus) error
	CancelOrder(ctx context.Context, shop string, accessToken string, orderID uint64) error
}
