// Package api is the local HTTP surface. Handlers translate requests into
// application service calls and service errors into JSON responses.
package api

import (
	"net/http"

	"storefront-bridge/internal/application"
	"storefront-bridge/internal/infrastructure/middleware"
	"storefront-bridge/internal/infrastructure/pubsub"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// WebhookVerifier checks the HMAC signature of a webhook request
type WebhookVerifier interface {
	VerifyWebhookRequest(r *http.Request) bool
}

// Services bundles what the handlers call into
type Services struct {
	Auth        *application.AuthService
	Credentials *application.CredentialService
	Products    *application.ProductService
	Pushes      *application.PushService
	Orders      *application.OrderService
	Webhooks    *application.WebhookDispatcher
	Verifier    WebhookVerifier
	Events      *pubsub.EventBus
}

// Handler serves the storefront API
type Handler struct {
	Services
	maxUploadBytes int64
	validate       *validator.Validate
	logger         zerolog.Logger
}

// NewHandler creates the API handler
func NewHandler(services Services, maxUploadBytes int64, logger zerolog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{
		Services:       services,
		maxUploadBytes: maxUploadBytes,
		validate:       newValidator(),
		logger:         logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts every endpoint on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/auth/shopify", h.beginInstall())
	r.Get("/auth/callback", h.completeInstall())
	r.Post("/webhooks/shopify", h.receiveWebhook())

	r.Route("/api", func(r chi.Router) {
		r.Post("/supplier/login", h.login())

		r.Group(func(r chi.Router) {
			r.Use(middleware.SupplierAuth(h.Auth, h.logger))
			r.Get("/supplier/products", h.listSupplierProducts())
			r.Post("/supplier/products", h.createProduct())
			r.Get("/supplier/products/{id}", h.getSupplierProduct())
			r.Patch("/supplier/products/{id}", h.updateProduct())
			r.Delete("/supplier/products/{id}", h.deleteProduct())
			r.Post("/supplier/images", h.uploadImage())
		})

		r.Get("/products", h.listSellerProducts())
		r.Post("/products/push-bulk", h.bulkPush())
		r.Post("/products/reconcile", h.reconcile())
		r.Get("/products/{id}", h.getProduct())
		r.Get("/products/{id}/quote", h.quote())
		r.Post("/products/{id}/push", h.push())
		r.Post("/push-to-shopify", h.pushRaw())

		r.Get("/shopify/orders/graphql", h.fetchOrdersGraphQL())
		r.Get("/shopify/orders", h.fetchOrdersREST())
		r.Get("/shopify/test/graphql", h.testConnectionGraphQL())
		r.Get("/shopify/test", h.testConnectionREST())
		r.Get("/shopify/events", h.streamEvents())

		r.Get("/orders", h.listOrders())
		r.Patch("/orders/{id}", h.updateOrder())
		r.Get("/connection", h.testConnection())

		r.Get("/credentials/{shop}", h.hasCredential())
		r.Delete("/credentials/{shop}", h.removeCredential())
		r.Post("/auth/clear", h.reauthenticate())
	})
}

func shopParam(r *http.Request) string {
	return r.URL.Query().Get("shop")
}

func chiParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
