package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const envelopeVersion = "v1"

var ErrInvalidCiphertext = errors.New("invalid token ciphertext")

// TokenCipher encrypts OAuth tokens before they are persisted.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// envelopeCipher seals every value with a fresh data key, and the data key
// with the master key. Output format: v1.<wrapped key>.<sealed value>.
type envelopeCipher struct {
	masterKey []byte
}

// NewTokenCipher builds the cipher from a hex encoded 32 byte master key.
func NewTokenCipher(hexKey string) (TokenCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode token encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("token encryption key must be 32 bytes, got %d", len(key))
	}
	return &envelopeCipher{masterKey: key}, nil
}

func (e *envelopeCipher) Encrypt(plaintext string) (string, error) {
	// Empty refresh tokens stay empty so "no refresh token" remains visible.
	if plaintext == "" {
		return "", nil
	}

	dataKey := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, dataKey); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	wrappedKey, err := seal(dataKey, e.masterKey)
	if err != nil {
		return "", err
	}

	sealed, err := seal([]byte(plaintext), dataKey)
	if err != nil {
		return "", err
	}

	return strings.Join([]string{
		envelopeVersion,
		base64.RawURLEncoding.EncodeToString(wrappedKey),
		base64.RawURLEncoding.EncodeToString(sealed),
	}, "."), nil
}

func (e *envelopeCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	parts := strings.Split(ciphertext, ".")
	if len(parts) != 3 || parts[0] != envelopeVersion {
		return "", ErrInvalidCiphertext
	}

	wrappedKey, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	sealed, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	dataKey, err := open(wrappedKey, e.masterKey)
	if err != nil {
		return "", err
	}

	plaintext, err := open(sealed, dataKey)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// seal encrypts data with AES-GCM and prefixes the nonce.
func seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return aesGCM.Seal(nonce, nonce, plaintext, nil), nil
}

func open(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	nonceSize := aesGCM.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrInvalidCiphertext
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, ErrInvalidCiphertext
	}

	return plaintext, nil
}
