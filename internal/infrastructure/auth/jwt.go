package auth

import (
	"errors"
	"time"

	"storefront-bridge/internal/config"
	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType distinguishes supplier sessions from OAuth state values signed with the same secret
type TokenType string

const (
	TokenTypeSession    TokenType = "supplier_session"
	TokenTypeOAuthState TokenType = "oauth_state"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// Claims represents custom JWT claims
type Claims struct {
	jwt.RegisteredClaims
	TokenType    TokenType `json:"token_type"`
	SupplierName string    `json:"supplier_name,omitempty"`
	Shop         string    `json:"shop,omitempty"`
	ReturnURL    string    `json:"return_url,omitempty"`
}

// JWTService signs supplier sessions and OAuth state values
type JWTService struct {
	secret     []byte
	sessionTTL time.Duration
	stateTTL   time.Duration
	issuer     string
	now        func() time.Time
}

var (
	_ ports.SessionManager = (*JWTService)(nil)
	_ ports.StateSigner    = (*JWTService)(nil)
)

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.AuthConfig) *JWTService {
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	stateTTL := cfg.StateTTL
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}
	return &JWTService{
		secret:     []byte(cfg.SessionSecret),
		sessionTTL: sessionTTL,
		stateTTL:   stateTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}
}

func (s *JWTService) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Issuer:    s.issuer,
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}

// Issue signs a session for the supplier
func (s *JWTService) Issue(supplier domain.Supplier) (string, time.Time, error) {
	claims := &Claims{
		RegisteredClaims: s.registered(supplier.ID, s.sessionTTL),
		TokenType:        TokenTypeSession,
		SupplierName:     supplier.Name,
	}
	token, err := s.generateToken(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

// Verify validates a session token and returns the supplier it was issued to
func (s *JWTService) Verify(tokenString string) (domain.Supplier, error) {
	claims, err := s.validateToken(tokenString, TokenTypeSession)
	if err != nil {
		return domain.Supplier{}, err
	}
	if claims.Subject == "" {
		return domain.Supplier{}, ErrInvalidClaims
	}
	name := claims.SupplierName
	if name == "" {
		name = claims.Subject
	}
	return domain.Supplier{ID: claims.Subject, Name: name}, nil
}

// SignState signs the OAuth state carried through the authorize redirect
func (s *JWTService) SignState(state ports.OAuthState) (string, error) {
	claims := &Claims{
		RegisteredClaims: s.registered(state.Shop, s.stateTTL),
		TokenType:        TokenTypeOAuthState,
		Shop:             state.Shop,
		ReturnURL:        state.ReturnURL,
	}
	return s.generateToken(claims)
}

// VerifyState validates an OAuth state value
func (s *JWTService) VerifyState(tokenString string) (ports.OAuthState, error) {
	claims, err := s.validateToken(tokenString, TokenTypeOAuthState)
	if err != nil {
		return ports.OAuthState{}, err
	}
	if claims.Shop == "" {
		return ports.OAuthState{}, ErrInvalidClaims
	}
	return ports.OAuthState{Shop: claims.Shop, ReturnURL: claims.ReturnURL}, nil
}

// generateToken creates a signed JWT token
func (s *JWTService) generateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// validateToken validates a JWT token
func (s *JWTService) validateToken(tokenString string, expectedType TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.TokenType != expectedType {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}
