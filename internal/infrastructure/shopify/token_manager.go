package shopify

import (
	"context"
	"errors"
	"net/http"

	"storefront-bridge/internal/domain"
)

// ValidateToken checks if a token is still valid by making a lightweight API call to Shopify.
// Shopify access tokens don't expire unless revoked, so a 401 or 403 from
// shop.json is the only signal that a stored token is dead.
func (c *client) ValidateToken(ctx context.Context, shopDomain string, accessToken string) (bool, error) {
	if accessToken == "" {
		return false, nil
	}
	if shopDomain == "" {
		return false, domain.NewValidationError("shop domain is required for token validation")
	}

	_, err := c.GetShop(ctx, shopDomain, accessToken)
	if err == nil {
		c.logger.Debug().Str("shop", shopDomain).Msg("Token validation successful")
		return true, nil
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) &&
		(upstream.Status == http.StatusUnauthorized || upstream.Status == http.StatusForbidden) {
		c.logger.Warn().
			Int("status", upstream.Status).
			Str("shop", shopDomain).
			Msg("Token validation failed: token is invalid or revoked")
		return false, nil
	}
	return false, err
}
