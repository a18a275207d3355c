package application

import (
	"context"
	"net/url"
	"strings"
	"time"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	"github.com/rs/zerolog"
)

// SupplierSession is a signed supplier session
type SupplierSession struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Supplier  domain.Supplier `json:"supplier"`
}

// AuthService issues supplier sessions and runs the Shopify OAuth install flow
type AuthService struct {
	sessions    ports.SessionManager
	states      ports.StateSigner
	client      ports.ShopifyClient
	credentials *CredentialService
	callbackURL string
	frontendURL string
	logger      zerolog.Logger
}

// NewAuthService creates a new auth service. callbackURL is the redirect URI
// registered with Shopify; frontendURL is the default landing page after install.
func NewAuthService(
	sessions ports.SessionManager,
	states ports.StateSigner,
	client ports.ShopifyClient,
	credentials *CredentialService,
	callbackURL string,
	frontendURL string,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		sessions:    sessions,
		states:      states,
		client:      client,
		credentials: credentials,
		callbackURL: callbackURL,
		frontendURL: frontendURL,
		logger:      logger.With().Str("service", "auth").Logger(),
	}
}

// Login issues a session for the named supplier
func (s *AuthService) Login(name string) (*SupplierSession, error) {
	supplier, err := domain.NewSupplier(name)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.sessions.Issue(supplier)
	if err != nil {
		s.logger.Error().Err(err).Str("supplier", supplier.ID).Msg("Failed to issue supplier session")
		return nil, err
	}
	s.logger.Info().Str("supplier", supplier.ID).Msg("Supplier session issued")
	return &SupplierSession{Token: token, ExpiresAt: expiresAt, Supplier: supplier}, nil
}

// Authenticate verifies a supplier session token
func (s *AuthService) Authenticate(token string) (domain.Supplier, error) {
	if token == "" {
		return domain.Supplier{}, domain.ErrInvalidSession
	}
	supplier, err := s.sessions.Verify(token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Rejected supplier session")
		return domain.Supplier{}, domain.ErrInvalidSession
	}
	return supplier, nil
}

// BeginInstall returns the Shopify authorize URL for the shop
func (s *AuthService) BeginInstall(shop, returnURL string) (string, error) {
	shop = domain.NormalizeShopDomain(shop)
	if !domain.IsValidShopDomain(shop) {
		return "", domain.NewValidationError("invalid shop domain %q", shop)
	}

	if returnURL != "" && !s.sameOrigin(returnURL) {
		s.logger.Warn().Str("shop", shop).Str("returnURL", returnURL).Msg("Ignoring foreign return URL")
		returnURL = ""
	}

	state, err := s.states.SignState(ports.OAuthState{Shop: shop, ReturnURL: returnURL})
	if err != nil {
		return "", err
	}

	authURL, err := s.client.GenerateAuthURL(shop, s.callbackURL, state)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to generate auth URL")
		return "", err
	}

	s.logger.Info().Str("shop", shop).Msg("Starting Shopify OAuth")
	return authURL, nil
}

// CompleteInstall verifies the callback, stores the issued token and returns
// where the browser should be sent.
func (s *AuthService) CompleteInstall(ctx context.Context, callback *url.URL) (string, error) {
	query := callback.Query()
	shop := domain.NormalizeShopDomain(query.Get("shop"))
	code := query.Get("code")
	stateToken := query.Get("state")
	if shop == "" || code == "" || stateToken == "" {
		return "", domain.NewValidationError("Missing required parameters")
	}

	ok, err := s.client.VerifyAuthorizationURL(callback)
	if err != nil || !ok {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("OAuth callback HMAC verification failed")
		return "", domain.NewError(domain.ErrUnauthorized, "invalid callback signature")
	}

	state, err := s.states.VerifyState(stateToken)
	if err != nil || state.Shop != shop {
		s.logger.Warn().Err(err).Str("shop", shop).Msg("OAuth state rejected")
		return "", domain.NewError(domain.ErrUnauthorized, "invalid or expired state")
	}

	token, err := s.client.ExchangeToken(ctx, shop, code, s.callbackURL)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to exchange token")
		return "", err
	}

	valid, err := s.client.ValidateToken(ctx, shop, token)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to validate access token")
		return "", err
	}
	if !valid {
		return "", domain.NewError(domain.ErrUnauthorized, "shopify rejected the issued access token")
	}

	if err := s.credentials.Store(ctx, shop, token); err != nil {
		return "", err
	}

	s.logger.Info().Str("shop", shop).Msg("Shopify OAuth completed")
	return s.successRedirect(state.ReturnURL, shop), nil
}

// sameOrigin reports whether the URL is relative or points at the frontend host.
// Browsers read a backslash as a slash, so "/\host" is protocol-relative.
func (s *AuthService) sameOrigin(raw string) bool {
	if strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if !u.IsAbs() && u.Host == "" {
		return true
	}
	frontend, err := url.Parse(s.frontendURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, frontend.Host)
}

func (s *AuthService) successRedirect(returnURL, shop string) string {
	if returnURL == "" {
		returnURL = s.frontendURL
	}
	u, err := url.Parse(returnURL)
	if err != nil {
		sep := "?"
		if strings.Contains(returnURL, "?") {
			sep = "&"
		}
		return returnURL + sep + "shopify_oauth=success&shop=" + url.QueryEscape(shop)
	}
	q := u.Query()
	q.Set("shopify_oauth", "success")
	q.Set("shop", shop)
	u.RawQuery = q.Encode()
	return u.String()
}
