package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

// Cipher encrypts short text fields (check-in notes) with AES-256-GCM.
// A nil *Cipher passes text through unchanged.
type Cipher struct {
	gcm cipher.AEAD
}

// ParseEncryptionKey decodes a base64 key that must be exactly 32 bytes.
func ParseEncryptionKey(keyBase64 string) ([]byte, error) {
	keyBase64 = strings.TrimSpace(keyBase64)
	if keyBase64 == "" {
		return nil, errors.New("encryption key not set")
	}
	keyBytes, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, errors.New("encryption key must be base64-encoded")
	}
	if len(keyBytes) != 32 {
		return nil, errors.New("encryption key must decode to exactly 32 bytes (256 bits)")
	}
	return keyBytes, nil
}

// NewCipher builds a Cipher from a base64-encoded 32-byte key.
func NewCipher(keyBase64 string) (*Cipher, error) {
	key, err := ParseEncryptionKey(keyBase64)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{gcm: gcm}, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if c == nil || plaintext == "" {
		return plaintext, nil
	}
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	if c == nil || ciphertext == "" {
		return ciphertext, nil
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}
	nonceSize := c.gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, body := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
