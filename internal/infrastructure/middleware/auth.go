package middleware

import (
	"context"
	"net/http"
	"strings"

	"storefront-bridge/internal/domain"

	"github.com/rs/zerolog"
)

// Authenticator verifies a supplier session token
type Authenticator interface {
	Authenticate(token string) (domain.Supplier, error)
}

type holderKey struct{}

// supplierHolder lets outer middleware see the identity resolved further in
type supplierHolder struct {
	supplier domain.Supplier
}

func withSupplierHolder(ctx context.Context, h *supplierHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// SupplierAuth requires a valid "Authorization: Bearer <token>" header and
// stores the verified supplier in the request context.
func SupplierAuth(authn Authenticator, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			supplier, err := authn.Authenticate(token)
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Supplier authentication failed")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="supplier"`)
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid or expired session"}`))
				return
			}

			if h, ok := r.Context().Value(holderKey{}).(*supplierHolder); ok {
				h.supplier = supplier
			}
			next.ServeHTTP(w, r.WithContext(domain.WithSupplier(r.Context(), supplier)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
