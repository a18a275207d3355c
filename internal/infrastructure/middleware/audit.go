package middleware

import (
	"net/http"
	"strconv"
	"time"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/infrastructure/metrics"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// AuditLoggingMiddleware writes one structured line per mutating request,
// naming the supplier when a session was verified.
func AuditLoggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			holder := &supplierHolder{}
			next.ServeHTTP(ww, r.WithContext(withSupplierHolder(r.Context(), holder)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := logger.Info()
			if status >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event = event.
				Str("audit", "request").
				Str("requestId", chimiddleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start))
			if shop := r.URL.Query().Get("shop"); shop != "" {
				event = event.Str("shop", domain.NormalizeShopDomain(shop))
			}
			if holder.supplier.ID != "" {
				event = event.Str("supplier", holder.supplier.ID)
			}
			event.Msg("Audit")
		})
	}
}

// MetricsMiddleware records request counts and latency by chi route pattern
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTP(route, r.Method, strconv.Itoa(status), time.Since(start))
		})
	}
}
