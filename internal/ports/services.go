package ports

import (
	"context"
	"time"

	"storefront-bridge/internal/domain"
)

// EncryptionService defines the interface for encrypting secrets at rest
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// ImageStorage defines the interface for product image object storage
type ImageStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// PublicURL returns the URL under which an uploaded object is served
	PublicURL(key string) string
}

// MarkerStore holds short-lived per-item markers such as "pushing" or "updating"
type MarkerStore interface {
	// Acquire sets the marker unless it is already held. It reports whether the caller now holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	Held(ctx context.Context, key string) (bool, error)
}

// SessionManager issues and verifies signed supplier sessions
type SessionManager interface {
	Issue(supplier domain.Supplier) (token string, expiresAt time.Time, err error)
	Verify(token string) (domain.Supplier, error)
}

// OAuthState is the payload carried through the Shopify authorize redirect
type OAuthState struct {
	Shop      string
	ReturnURL string
}

// StateSigner signs and verifies OAuth state values
type StateSigner interface {
	SignState(state OAuthState) (string, error)
	VerifyState(token string) (OAuthState, error)
}

// WorkflowMetrics records push and order sync outcomes
type WorkflowMetrics interface {
	IncPush(status string)
	IncOrderFetch(method string, err error)
}

// EventPublisher fans verified webhook events out to live subscribers
type EventPublisher interface {
	Publish(event *domain.WebhookEvent)
}
