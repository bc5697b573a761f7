// Package secret encrypts stored guest credentials with AES-256-GCM.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ericfisherdev/proxmoxvm/internal/domain/port/driven"
)

// KeySize is the required key length in bytes.
const KeySize = 32

// Box seals and opens short secrets. The zero value, or a Box built with a nil
// key, refuses every operation with driven.ErrEncryptionKeyNotSet.
type Box struct {
	key []byte
}

// NewBox creates a Box. key must be 32 bytes, or nil to disable encryption.
func NewBox(key []byte) (*Box, error) {
	if key != nil && len(key) != KeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", KeySize, len(key))
	}
	return &Box{key: key}, nil
}

// Enabled reports whether a key is configured.
func (b *Box) Enabled() bool {
	return b != nil && b.key != nil
}

// Encrypt returns base64(nonce || ciphertext || tag).
func (b *Box) Encrypt(plaintext string) (string, error) {
	gcm, err := b.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (b *Box) Decrypt(encoded string) (string, error) {
	gcm, err := b.aead()
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (b *Box) aead() (cipher.AEAD, error) {
	if !b.Enabled() {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
