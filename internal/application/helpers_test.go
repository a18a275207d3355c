package application

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"storefront-bridge/internal/config"
	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/infrastructure/encryption"
	"storefront-bridge/internal/infrastructure/marker"
	"storefront-bridge/internal/infrastructure/repository"
	"storefront-bridge/internal/ports"

	shopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testShop = "acme.myshopify.com"

// fakeShopify implements ports.ShopifyClient with overridable functions
type fakeShopify struct {
	mu    sync.Mutex
	calls map[string]int

	GenerateAuthURLFn        func(shop, redirectURI, state string) (string, error)
	ExchangeTokenFn          func(ctx context.Context, shop, code, redirectURI string) (string, error)
	VerifyAuthorizationURLFn func(u *url.URL) (bool, error)
	VerifyWebhookRequestFn   func(r *http.Request) bool
	GetShopFn                func(ctx context.Context, shop, token string) (*shopify.Shop, error)
	ValidateTokenFn          func(ctx context.Context, shop, token string) (bool, error)
	CountOrdersFn            func(ctx context.Context, shop, token string) (int, error)
	ShopSummaryGraphQLFn     func(ctx context.Context, shop, token string) (*domain.ConnectionInfo, error)
	GetProductFn             func(ctx context.Context, shop, token string, id uint64) (*shopify.Product, error)
	CreateProductFn          func(ctx context.Context, shop, token string, p *shopify.Product) (*shopify.Product, error)
	GetOrdersGraphQLFn       func(ctx context.Context, shop, token string, limit int) ([]domain.Order, error)
	GetOrdersFn              func(ctx context.Context, shop, token string, limit int) ([]domain.Order, error)
	UpdateOrderStatusFn      func(ctx context.Context, shop, token string, id uint64, status domain.FulfillmentStatus) error
	CancelOrderFn            func(ctx context.Context, shop, token string, id uint64) error
}

var _ ports.ShopifyClient = (*fakeShopify)(nil)

func (f *fakeShopify) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeShopify) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeShopify) GenerateAuthURL(shop, redirectURI, state string) (string, error) {
	f.record("GenerateAuthURL")
	if f.GenerateAuthURLFn != nil {
		return f.GenerateAuthURLFn(shop, redirectURI, state)
	}
	return "https://" + shop + "/admin/oauth/authorize?state=" + url.QueryEscape(state), nil
}

func (f *fakeShopify) ExchangeToken(ctx context.Context, shop, code, redirectURI string) (string, error) {
	f.record("ExchangeToken")
	if f.ExchangeTokenFn != nil {
		return f.ExchangeTokenFn(ctx, shop, code, redirectURI)
	}
	return "shpat_new", nil
}

func (f *fakeShopify) VerifyAuthorizationURL(u *url.URL) (bool, error) {
	f.record("VerifyAuthorizationURL")
	if f.VerifyAuthorizationURLFn != nil {
		return f.VerifyAuthorizationURLFn(u)
	}
	return true, nil
}

func (f *fakeShopify) VerifyWebhookRequest(r *http.Request) bool {
	f.record("VerifyWebhookRequest")
	if f.VerifyWebhookRequestFn != nil {
		return f.VerifyWebhookRequestFn(r)
	}
	return true
}

func (f *fakeShopify) GetShop(ctx context.Context, shop, token string) (*shopify.Shop, error) {
	f.record("GetShop")
	if f.GetShopFn != nil {
		return f.GetShopFn(ctx, shop, token)
	}
	return &shopify.Shop{Name: "Acme"}, nil
}

func (f *fakeShopify) ValidateToken(ctx context.Context, shop, token string) (bool, error) {
	f.record("ValidateToken")
	if f.ValidateTokenFn != nil {
		return f.ValidateTokenFn(ctx, shop, token)
	}
	return true, nil
}

func (f *fakeShopify) CountOrders(ctx context.Context, shop, token string) (int, error) {
	f.record("CountOrders")
	if f.CountOrdersFn != nil {
		return f.CountOrdersFn(ctx, shop, token)
	}
	return 0, nil
}

func (f *fakeShopify) ShopSummaryGraphQL(ctx context.Context, shop, token string) (*domain.ConnectionInfo, error) {
	f.record("ShopSummaryGraphQL")
	if f.ShopSummaryGraphQLFn != nil {
		return f.ShopSummaryGraphQLFn(ctx, shop, token)
	}
	return &domain.ConnectionInfo{ShopName: "Acme", Method: domain.SyncGraphQL}, nil
}

func (f *fakeShopify) GetProduct(ctx context.Context, shop, token string, id uint64) (*shopify.Product, error) {
	f.record("GetProduct")
	if f.GetProductFn != nil {
		return f.GetProductFn(ctx, shop, token, id)
	}
	return &shopify.Product{Id: id}, nil
}

func (f *fakeShopify) CreateProduct(ctx context.Context, shop, token string, p *shopify.Product) (*shopify.Product, error) {
	f.record("CreateProduct")
	if f.CreateProductFn != nil {
		return f.CreateProductFn(ctx, shop, token, p)
	}
	created := *p
	created.Id = 1001
	return &created, nil
}

func (f *fakeShopify) GetOrdersGraphQL(ctx context.Context, shop, token string, limit int) ([]domain.Order, error) {
	f.record("GetOrdersGraphQL")
	if f.GetOrdersGraphQLFn != nil {
		return f.GetOrdersGraphQLFn(ctx, shop, token, limit)
	}
	return nil, nil
}

func (f *fakeShopify) GetOrders(ctx context.Context, shop, token string, limit int) ([]domain.Order, error) {
	f.record("GetOrders")
	if f.GetOrdersFn != nil {
		return f.GetOrdersFn(ctx, shop, token, limit)
	}
	return nil, nil
}

func (f *fakeShopify) UpdateOrderStatus(ctx context.Context, shop, token string, id uint64, status domain.FulfillmentStatus) error {
	f.record("UpdateOrderStatus")
	if f.UpdateOrderStatusFn != nil {
		return f.UpdateOrderStatusFn(ctx, shop, token, id, status)
	}
	return nil
}

func (f *fakeShopify) CancelOrder(ctx context.Context, shop, token string, id uint64) error {
	f.record("CancelOrder")
	if f.CancelOrderFn != nil {
		return f.CancelOrderFn(ctx, shop, token, id)
	}
	return nil
}

// fakeImageStorage keeps uploads in memory
type fakeImageStorage struct {
	mu      sync.Mutex
	objects map[string]string
	err     error
}

func (s *fakeImageStorage) Upload(_ context.Context, key string, _ []byte, contentType string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = map[string]string{}
	}
	s.objects[key] = contentType
	return nil
}

func (s *fakeImageStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeImageStorage) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type recordingMetrics struct {
	mu      sync.Mutex
	pushes  map[string]int
	fetches map[string]int
}

func (m *recordingMetrics) IncPush(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pushes == nil {
		m.pushes = map[string]int{}
	}
	m.pushes[status]++
}

func (m *recordingMetrics) IncOrderFetch(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetches == nil {
		m.fetches = map[string]int{}
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.fetches[method+":"+outcome]++
}

type testEnv struct {
	shopify     *fakeShopify
	images      *fakeImageStorage
	metrics     *recordingMetrics
	markers     *marker.MemoryStore
	pushRecords *repository.MemoryPushRecordRepository
	credentials *CredentialService
	products    *ProductService
	pushes      *PushService
	orders      *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	enc, err := encryption.NewService("test-encryption-key")
	require.NoError(t, err)

	logger := zerolog.Nop()
	env := &testEnv{
		shopify:     &fakeShopify{},
		images:      &fakeImageStorage{},
		metrics:     &recordingMetrics{},
		markers:     marker.NewMemoryStore(),
		pushRecords: repository.NewMemoryPushRecordRepository(),
	}
	env.credentials = NewCredentialService(repository.NewMemoryCredentialRepository(), enc, logger)
	env.products = NewProductService(repository.NewMemoryProductRepository(), env.images, 1<<20, logger)
	env.pushes = NewPushService(
		env.products,
		env.credentials,
		env.pushRecords,
		env.markers,
		env.shopify,
		env.metrics,
		config.ShopifyConfig{Vendor: "Your App", ProductType: "Widget"},
		logger,
	)
	env.orders = NewOrderService(env.credentials, env.markers, env.shopify, env.metrics, 50, "http://localhost:8080/auth/shopify", logger)
	return env
}

func (e *testEnv) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, e.credentials.Store(context.Background(), testShop, "shpat_token"))
}
