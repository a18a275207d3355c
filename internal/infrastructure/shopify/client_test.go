package shopify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"storefront-bridge/internal/config"
	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testShop  = "acme.myshopify.com"
	testToken = "shpat_test"
	apiPrefix = "/admin/api/2023-10"
)

// rewriteTransport sends every request to the test server regardless of the
// shop host go-shopify builds.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = t.target.Scheme
	r.URL.Host = t.target.Host
	r.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func testConfig() config.ShopifyConfig {
	return config.ShopifyConfig{
		APIKey:       "key",
		APISecret:    "secret",
		APIVersion:   "2023-10",
		Scopes:       []string{"read_products", "write_products"},
		MaxRetries:   0,
		RequestRate:  1000,
		RequestBurst: 1000,
		Timeout:      5 * time.Second,
	}
}

func newTestClient(t *testing.T, handler http.Handler) ports.ShopifyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c, err := NewClient(testConfig(), zerolog.Nop(), WithHTTPClient(&http.Client{
		Transport: rewriteTransport{target: target},
		Timeout:   5 * time.Second,
	}))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestQueriesAreValid(t *testing.T) {
	require.NoError(t, validateQueries())
}

func TestGenerateAuthURL(t *testing.T) {
	c, err := NewClient(testConfig(), zerolog.Nop())
	require.NoError(t, err)

	raw, err := c.GenerateAuthURL(testShop, "https://app.example.com/auth/callback", "signed-state")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, testShop, u.Host)
	assert.Equal(t, "/admin/oauth/authorize", u.Path)
	assert.Equal(t, "key", u.Query().Get("client_id"))
	assert.Equal(t, "read_products,write_products", u.Query().Get("scope"))
	assert.Equal(t, "https://app.example.com/auth/callback", u.Query().Get("redirect_uri"))
	assert.Equal(t, "signed-state", u.Query().Get("state"))

	_, err = c.GenerateAuthURL("", "x", "y")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestExchangeToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good" {
			writeJSON(w, http.StatusBadRequest, `{"error":"invalid_request"}`)
			return
		}
		assert.Equal(t, "https://app.example.com/auth/callback", r.PostForm.Get("redirect_uri"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		writeJSON(w, http.StatusOK, `{"access_token":"shpat_new","scope":"read_products"}`)
	})
	c := newTestClient(t, mux)

	token, err := c.ExchangeToken(context.Background(), testShop, "good", "https://app.example.com/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "shpat_new", token)

	_, err = c.ExchangeToken(context.Background(), testShop, "bad", "https://app.example.com/auth/callback")
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.Status)
}

func TestCreateProduct(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(apiPrefix+"/products.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, testToken, r.Header.Get("X-Shopify-Access-Token"))

		var body struct {
			Product map[string]interface{} `json:"product"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Product["title"] == "" || body.Product["title"] == nil {
			writeJSON(w, http.StatusUnprocessableEntity, `{"errors":{"title":["can't be blank"]}}`)
			return
		}
		assert.Equal(t, "<strong>Ceramic</strong>", body.Product["body_html"])
		writeJSON(w, http.StatusCreated, `{"product":{"id":987654321,"title":"Mug","handle":"mug"}}`)
	})
	c := newTestClient(t, mux)

	price := decimal.NewFromInt(750)
	created, err := c.CreateProduct(context.Background(), testShop, testToken, &goshopify.Product{
		Title:    "Mug",
		BodyHTML: "<strong>Ceramic</strong>",
		Variants: []goshopify.Variant{{Price: &price}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(987654321), created.Id)

	_, err = c.CreateProduct(context.Background(), testShop, testToken, &goshopify.Product{})
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnprocessableEntity, upstream.Status)
	assert.NotEmpty(t, upstream.Errors)
}

func TestGetProductNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(apiPrefix+"/products/42.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"errors":"Not Found"}`)
	})
	c := newTestClient(t, mux)

	_, err := c.GetProduct(context.Background(), testShop, testToken, 42)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

const restOrders = `{"orders":[
  {"id":1001,"order_number":1001,"name":"#1001","email":"ann@example.com","currency":"USD",
   "total_price":"25.50","financial_status":"paid","fulfillment_status":null,
   "created_at":"2024-03-01T10:00:00Z","tags":"vip, wholesale","note":"leave at door",
   "customer":{"first_name":"Ann","last_name":"Lee","email":"ann@example.com"},
   "line_items":[{"id":1,"name":"Mug","title":"Mug","quantity":2,"price":"12.75","product_id":987,"variant_id":654}]},
  {"id":1002,"order_number":1002,"name":"#1002","currency":"USD","total_price":"10.00",
   "financial_status":"refunded","fulfillment_status":"fulfilled","cancelled_at":"2024-03-02T10:00:00Z",
   "created_at":"2024-03-01T11:00:00Z","line_items":[]},
  {"id":1003,"order_number":1003,"name":"#1003","currency":"USD","total_price":"5.00",
   "financial_status":"paid","fulfillment_status":"partial","created_at":"2024-03-01T12:00:00Z","line_items":[]}
]}`

func TestGetOrdersREST(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(apiPrefix+"/orders.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "any", r.URL.Query().Get("status"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, restOrders)
	})
	c := newTestClient(t, mux)

	orders, err := c.GetOrders(context.Background(), testShop, testToken, 50)
	require.NoError(t, err)
	require.Len(t, orders, 3)

	first := orders[0]
	assert.Equal(t, "1001", first.ID)
	assert.Equal(t, 1001, first.OrderNumber)
	assert.Equal(t, "Ann Lee", first.CustomerName)
	assert.Equal(t, domain.FulfillmentPending, first.Status)
	assert.Equal(t, "paid", first.FinancialStatus)
	assert.Equal(t, "25.5", first.Amount.String())
	assert.Equal(t, []string{"vip", "wholesale"}, first.Tags)
	require.Len(t, first.LineItems, 1)
	assert.Equal(t, "987", first.LineItems[0].ProductID)
	assert.Equal(t, "654", first.LineItems[0].VariantID)

	assert.Equal(t, domain.FulfillmentCancelled, orders[1].Status)
	assert.Equal(t, domain.FulfillmentPartial, orders[2].Status)
}

const graphQLOrders = `{"data":{"orders":{"edges":[
  {"node":{"id":"gid://shopify/Order/5001","name":"#1017","email":"bo@example.com","note":null,"tags":["gift"],
   "createdAt":"2024-03-05T09:00:00Z","cancelledAt":null,
   "displayFulfillmentStatus":"UNFULFILLED","displayFinancialStatus":"PAID",
   "totalPriceSet":{"shopMoney":{"amount":"42.00","currencyCode":"EUR"}},
   "customer":{"firstName":"Bo","lastName":"Ng","email":"bo@example.com"},
   "lineItems":{"edges":[{"node":{"id":"gid://shopify/LineItem/7","name":"Mug","quantity":1,
     "originalUnitPriceSet":{"shopMoney":{"amount":"42.00","currencyCode":"EUR"}},
     "variant":{"id":"gid://shopify/ProductVariant/8"},"product":{"id":"gid://shopify/Product/9"}}}]}}},
  {"node":{"id":"gid://shopify/Order/5002","name":"#1018","tags":[],"createdAt":"2024-03-05T10:00:00Z",
   "cancelledAt":null,"displayFulfillmentStatus":"FULFILLED","displayFinancialStatus":"PAID",
   "totalPriceSet":{"shopMoney":{"amount":"1.00","currencyCode":"EUR"}},"customer":null,"lineItems":{"edges":[]}}}
]}}}`

func TestGetOrdersGraphQL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(apiPrefix+"/graphql.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		writeJSON(w, http.StatusOK, graphQLOrders)
	})
	c := newTestClient(t, mux)

	orders, err := c.GetOrdersGraphQL(context.Background(), testShop, testToken, 50)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	o := orders[0]
	assert.Equal(t, "5001", o.ID)
	assert.Equal(t, 1017, o.OrderNumber)
	assert.Equal(t, "Bo Ng", o.CustomerName)
	assert.Equal(t, "paid", o.FinancialStatus)
	assert.Equal(t, "EUR", o.Currency)
	assert.Equal(t, domain.FulfillmentPending, o.Status)
	require.Len(t, o.LineItems, 1)
	assert.Equal(t, "7", o.LineItems[0].ID)
	assert.Equal(t, "8", o.LineItems[0].VariantID)
	assert.Equal(t, "9", o.LineItems[0].ProductID)

	assert.Equal(t, domain.FulfillmentFulfilled, orders[1].Status)
}

func TestShopSummaryGraphQL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(apiPrefix+"/graphql.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"shop":{"name":"Acme"},"orders":{"edges":[{"node":{"id":"gid://shopify/Order/1"}},{"node":{"id":"gid://shopify/Order/2"}}]}}}`)
	})
	c := newTestClient(t, mux)

	info, err := c.ShopSummaryGraphQL(context.Background(), testShop, testToken)
	require.NoError(t, err)
	assert.Equal(t, "Acme", info.ShopName)
	assert.Equal(t, 2, info.OrderCount)
	assert.Equal(t, domain.SyncGraphQL, info.Method)
}

func TestUpdateAndCancelOrder(t *testing.T) {
	var updated, cancelled int32
	mux := http.NewServeMux()
	mux.HandleFunc(apiPrefix+"/orders/1001.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body struct {
			Order map[string]interface{} `json:"order"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "fulfilled", body.Order["fulfillment_status"])
		atomic.AddInt32(&updated, 1)
		writeJSON(w, http.StatusOK, `{"order":{"id":1001}}`)
	})
	mux.HandleFunc(apiPrefix+"/orders/1001/cancel.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		atomic.AddInt32(&cancelled, 1)
		writeJSON(w, http.StatusOK, `{"order":{"id":1001}}`)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, c.UpdateOrderStatus(ctx, testShop, testToken, 1001, domain.FulfillmentFulfilled))
	require.NoError(t, c.CancelOrder(ctx, testShop, testToken, 1001))
	assert.ErrorIs(t, c.UpdateOrderStatus(ctx, testShop, testToken, 1001, domain.FulfillmentPartial), domain.ErrValidation)

	assert.Equal(t, int32(1), atomic.LoadInt32(&updated))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))
}

func TestValidateToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(apiPrefix+"/shop.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Shopify-Access-Token") != testToken {
			writeJSON(w, http.StatusUnauthorized, `{"errors":"[API] Invalid API key or access token"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"shop":{"name":"Acme"}}`)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	ok, err := c.ValidateToken(ctx, testShop, testToken)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ValidateToken(ctx, testShop, "revoked")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.ValidateToken(ctx, testShop, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc(apiPrefix+"/shop.json", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusInternalServerError, `{"errors":"boom"}`)
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.GetShop(ctx, testShop, testToken)
		require.Error(t, err)
	}

	_, err := c.GetShop(ctx, testShop, testToken)
	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.Status)
	assert.Equal(t, int32(5), atomic.LoadInt32(&hits), "open breaker short-circuits the call")

	// Another shop has its own breaker.
	_, err = c.GetShop(ctx, "other.myshopify.com", testToken)
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusInternalServerError, upstream.Status)
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc(apiPrefix+"/products/1.json", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusNotFound, `{"errors":"Not Found"}`)
	})
	c := newTestClient(t, mux)

	for i := 0; i < 8; i++ {
		_, err := c.GetProduct(context.Background(), testShop, testToken, 1)
		require.True(t, domain.IsNotFound(err))
	}
	assert.Equal(t, int32(8), atomic.LoadInt32(&hits))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "123", gidToID("gid://shopify/Order/123"))
	assert.Equal(t, "123", gidToID("gid://shopify/Order/123?x=1"))
	assert.Equal(t, "", gidToID(""))

	var n uint64 = 7
	assert.Equal(t, "7", formatID(n))
	assert.Equal(t, "7", formatID(&n))
	assert.Equal(t, "", formatID(uint64(0)))
	assert.Equal(t, "", formatID((*uint64)(nil)))

	assert.Equal(t, []string{"a", "b"}, splitTags(" a ,, b"))
	assert.Equal(t, []string{}, splitTags(""))
}
