// Package crypto seals applicant identity documents at rest with AES-256-GCM.
// Sealed values are text so every storage backend can keep them in a plain
// string field; the registration id is bound in as associated data so a sealed
// document cannot be moved to another registration.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const sealedPrefix = "sealed:v1:"

// ErrNotSealed is returned by Open for values that were never sealed
var ErrNotSealed = errors.New("value is not sealed")

// Encrypt encrypts plaintext using AES-256-GCM and prepends the nonce
func Encrypt(plaintext []byte, key []byte, associatedData string) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, []byte(associatedData)), nil
}

// Decrypt reverses Encrypt
func Decrypt(encrypted []byte, key []byte, associatedData string) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(encrypted) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := encrypted[:nonceSize], encrypted[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, []byte(associatedData))
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// GenerateKey generates a new 32-byte (256-bit) key
func GenerateKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// DocumentSealer turns uploaded documents into sealed text and back
type DocumentSealer struct {
	key []byte
}

// NewDocumentSealer creates a sealer for a 32-byte key
func NewDocumentSealer(key []byte) (*DocumentSealer, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("document key must be 32 bytes, got %d", len(key))
	}
	return &DocumentSealer{key: key}, nil
}

// Seal encrypts a document for the given owner id
func (s *DocumentSealer) Seal(document, ownerID string) (string, error) {
	encrypted, err := Encrypt([]byte(document), s.key, ownerID)
	if err != nil {
		return "", err
	}
	return sealedPrefix + base64.StdEncoding.EncodeToString(encrypted), nil
}

// Open decrypts a value produced by Seal for the same owner id
func (s *DocumentSealer) Open(sealed, ownerID string) (string, error) {
	if !IsSealed(sealed) {
		return "", ErrNotSealed
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("malformed sealed document: %w", err)
	}
	plaintext, err := Decrypt(raw, s.key, ownerID)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// IsSealed reports whether v carries the sealed marker
func IsSealed(v string) bool {
	return strings.HasPrefix(v, sealedPrefix)
}
