package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"storefront-bridge/internal/ports"
)

// Service encrypts secrets with AES-256-GCM. Ciphertexts are base64(nonce || sealed).
type Service struct {
	aead cipher.AEAD
}

var _ ports.EncryptionService = (*Service)(nil)

// NewService creates an encryption service. The key may be 64 hex characters,
// 32 raw bytes, or any other passphrase, which is stretched with SHA-256.
func NewService(key string) (*Service, error) {
	if key == "" {
		return nil, errors.New("encryption key cannot be empty")
	}

	keyBytes := deriveKey(key)
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Service{aead: aead}, nil
}

func deriveKey(key string) []byte {
	if len(key) == 64 {
		if decoded, err := hex.DecodeString(key); err == nil {
			return decoded
		}
	}
	if len(key) == 32 {
		return []byte(key)
	}
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}

// Encrypt encrypts plaintext
func (s *Service) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt decrypts a value produced by Encrypt
func (s *Service) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	plaintext, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
