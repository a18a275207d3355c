package application

import (
	"context"
	"errors"
	"fmt"

	"storefront-bridge/internal/domain"
	"storefront-bridge/internal/ports"

	"github.com/rs/zerolog"
)

// CredentialService stores the Shopify access token of each connected shop.
// Tokens are encrypted before they reach the repository.
type CredentialService struct {
	repo          ports.CredentialRepository
	encryptionSvc ports.EncryptionService
	logger        zerolog.Logger
}

// NewCredentialService creates a new credential service
func NewCredentialService(
	repo ports.CredentialRepository,
	encryptionSvc ports.EncryptionService,
	logger zerolog.Logger,
) *CredentialService {
	return &CredentialService{
		repo:          repo,
		encryptionSvc: encryptionSvc,
		logger:        logger.With().Str("service", "credentials").Logger(),
	}
}

// Store saves or replaces the token for a shop
func (s *CredentialService) Store(ctx context.Context, shop, accessToken string) error {
	shop = domain.NormalizeShopDomain(shop)
	if shop == "" {
		return domain.NewValidationError("shop is required")
	}
	if accessToken == "" {
		return domain.NewValidationError("access token is required")
	}

	encrypted, err := s.encryptionSvc.Encrypt(accessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to encrypt access token")
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	if err := s.repo.Upsert(ctx, &domain.Credential{Shop: shop, AccessToken: encrypted}); err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to store access token")
		return err
	}

	s.logger.Info().Str("shop", shop).Msg("Stored Shopify access token")
	return nil
}

// Get returns the plaintext token, or domain.ErrCredentialNotFound
func (s *CredentialService) Get(ctx context.Context, shop string) (string, error) {
	shop = domain.NormalizeShopDomain(shop)
	if shop == "" {
		return "", domain.NewValidationError("shop is required")
	}

	credential, err := s.repo.Get(ctx, shop)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to read access token")
		return "", err
	}
	if credential == nil {
		return "", domain.ErrCredentialNotFound
	}

	token, err := s.encryptionSvc.Decrypt(credential.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to decrypt access token")
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return token, nil
}

// Has reports whether a token is stored for the shop
func (s *CredentialService) Has(ctx context.Context, shop string) (bool, error) {
	_, err := s.Get(ctx, shop)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// AccessToken is Get for callers about to talk to Shopify: a missing token
// becomes domain.ErrMissingAccessToken.
func (s *CredentialService) AccessToken(ctx context.Context, shop string) (string, error) {
	token, err := s.Get(ctx, shop)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrMissingAccessToken
	}
	return token, err
}

// Remove deletes the token for a shop
func (s *CredentialService) Remove(ctx context.Context, shop string) error {
	shop = domain.NormalizeShopDomain(shop)
	if shop == "" {
		return domain.NewValidationError("shop is required")
	}
	if err := s.repo.Delete(ctx, shop); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error().Err(err).Str("shop", shop).Msg("Failed to remove access token")
		}
		return err
	}
	s.logger.Info().Str("shop", shop).Msg("Removed Shopify access token")
	return nil
}

// ClearAll deletes every stored token
func (s *CredentialService) ClearAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear access tokens")
		return 0, err
	}
	s.logger.Info().Int64("removed", n).Msg("Cleared all Shopify access tokens")
	return n, nil
}
