package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"storefront-bridge/internal/config"
	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/infrastructure/metrics"
	"storefront-bridge/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

type client struct {
	cfg        config.ShopifyConfig
	app        goshopify.App
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
}

// Option configures the Shopify client adapter
type Option func(*client)

// WithHTTPClient replaces the HTTP client used for every Shopify call
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithMetrics records call outcomes and breaker state
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *client) { c.metrics = m }
}

// NewClient creates a new Shopify client adapter. Calls are rate limited and
// guarded by a circuit breaker per shop.
func NewClient(cfg config.ShopifyConfig, logger zerolog.Logger, opts ...Option) (ports.ShopifyClient, error) {
	if err := validateQueries(); err != nil {
		return nil, err
	}

	c := &client{
		cfg: cfg,
		app: goshopify.App{
			ApiKey:    cfg.APIKey,
			ApiSecret: cfg.APISecret,
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "shopify_client").Logger(),
		limiters:   make(map[string]*rate.Limiter),
		breakers:   make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// createClient is a helper to create a goshopify client
func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	opts := []goshopify.Option{
		goshopify.WithHTTPClient(c.httpClient),
		goshopify.WithRetry(c.cfg.MaxRetries),
	}
	if c.cfg.APIVersion != "" {
		opts = append(opts, goshopify.WithVersion(c.cfg.APIVersion))
	}
	api, err := goshopify.NewClient(c.app, shopDomain, accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return api, nil
}

func (c *client) limiter(shop string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.limiters[shop]
	if !ok {
		burst := c.cfg.RequestBurst
		if burst < 1 {
			burst = 1
		}
		l = rate.NewLimiter(rate.Limit(c.cfg.RequestRate), burst)
		c.limiters[shop] = l
	}
	return l
}

func (c *client) breaker(shop string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.breakers[shop]
	if !ok {
		b = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        shop,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn().
					Str("shop", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Shopify circuit breaker changed state")
				c.metrics.SetBreakerState(name, float64(to))
			},
			IsSuccessful: isBreakerSuccess,
		})
		c.breakers[shop] = b
	}
	return b
}

// call runs fn against the shop's Admin API under its rate limit and breaker
func call[T any](ctx context.Context, c *client, shop, accessToken, operation string, fn func(*goshopify.Client) (T, error)) (T, error) {
	var zero T

	api, err := c.createClient(shop, accessToken)
	if err != nil {
		return zero, err
	}
	if err := c.limiter(shop).Wait(ctx); err != nil {
		return zero, fmt.Errorf("shopify rate limit wait: %w", err)
	}

	start := time.Now()
	res, err := c.breaker(shop).Execute(func() (interface{}, error) {
		v, err := fn(api)
		return v, translateError(err)
	})
	err = translateError(err)
	c.metrics.ObserveShopify(operation, err, time.Since(start))
	if err != nil {
		c.logger.Debug().Err(err).Str("shop", shop).Str("operation", operation).Msg("Shopify call failed")
		return zero, err
	}
	return res.(T), nil
}

// Authentication methods

func (c *client) GenerateAuthURL(shop string, redirectURI string, state string) (string, error) {
	if shop == "" {
		return "", domain.NewValidationError("shop is required")
	}

	// Shopify expects scopes to be comma-separated (no spaces)
	values := url.Values{}
	values.Set("client_id", c.cfg.APIKey)
	values.Set("scope", strings.Join(c.cfg.Scopes, ","))
	values.Set("redirect_uri", redirectURI)
	values.Set("state", state)

	c.logger.Info().
		Str("shop", shop).
		Strs("scopes", c.cfg.Scopes).
		Msg("Generated OAuth authorization URL")

	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, values.Encode()), nil
}

func (c *client) ExchangeToken(ctx context.Context, shop string, code string, redirectURI string) (string, error) {
	// Shopify requires the redirect_uri parameter to match the one used in authorization.
	// GetAccessToken doesn't send it, so we make a direct HTTP call.
	if redirectURI == "" {
		token, err := c.app.GetAccessToken(ctx, shop, code)
		if err != nil {
			return "", fmt.Errorf("failed to exchange token: %w", translateError(err))
		}
		return token, nil
	}

	values := url.Values{}
	values.Set("client_id", c.cfg.APIKey)
	values.Set("client_secret", c.cfg.APISecret)
	values.Set("code", code)
	values.Set("redirect_uri", redirectURI)

	tokenURL := fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &domain.UpstreamError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResponse.AccessToken == "" {
		return "", &domain.UpstreamError{Status: http.StatusBadGateway, Message: "token response carried no access token"}
	}
	return tokenResponse.AccessToken, nil
}

func (c *client) VerifyAuthorizationURL(u *url.URL) (bool, error) {
	return c.app.VerifyAuthorizationURL(u)
}

func (c *client) VerifyWebhookRequest(r *http.Request) bool {
	return c.app.VerifyWebhookRequest(r)
}

// Shop API

func (c *client) GetShop(ctx context.Context, shopDomain string, accessToken string) (*goshopify.Shop, error) {
	shop, err := call(ctx, c, shopDomain, accessToken, "get_shop", func(api *goshopify.Client) (*goshopify.Shop, error) {
		return api.Shop.Get(ctx, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return shop, nil
}

func (c *client) CountOrders(ctx context.Context, shopDomain string, accessToken string) (int, error) {
	count, err := call(ctx, c, shopDomain, accessToken, "count_orders", func(api *goshopify.Client) (int, error) {
		return api.Order.Count(ctx, statusAny{Status: "any"})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// Product API

func (c *client) GetProduct(ctx context.Context, shopDomain string, accessToken string, productID uint64) (*goshopify.Product, error) {
	product, err := call(ctx, c, shopDomain, accessToken, "get_product", func(api *goshopify.Client) (*goshopify.Product, error) {
		return api.Product.Get(ctx, productID, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (c *client) CreateProduct(ctx context.Context, shopDomain string, accessToken string, product *goshopify.Product) (*goshopify.Product, error) {
	created, err := call(ctx, c, shopDomain, accessToken, "create_product", func(api *goshopify.Client) (*goshopify.Product, error) {
		return api.Product.Create(ctx, *product)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

// statusAny is the query string for REST order reads. Shopify defaults to open
// orders only, which would hide cancelled ones.
type statusAny struct {
	Status string `url:"status,omitempty"`
	Limit  int    `url:"limit,omitempty"`
}
