package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// prefix marks values sealed by this vault
	prefix = "v1."

	hkdfInfo = "llm-mail-digest credential vault"
)

// Vault seals secrets with XChaCha20-Poly1305
type Vault struct {
	key    []byte
	logger *zap.Logger
}

// New creates a vault from a raw 32-byte key
func New(key []byte, logger *zap.Logger) (*Vault, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("vault key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vault{key: append([]byte(nil), key...), logger: logger}, nil
}

// NewFromPassphrase derives the key from a configured secret.
// A base64url value that decodes to exactly 32 bytes is used directly; anything else goes through HKDF-SHA256.
func NewFromPassphrase(secret string, logger *zap.Logger) (*Vault, error) {
	if secret == "" {
		return nil, errors.New("vault passphrase is empty")
	}
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	return New(key, logger)
}

// DeriveKey turns a configured secret into a vault key
func DeriveKey(secret string) ([]byte, error) {
	if raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(secret, "=")); err == nil &&
		len(raw) == chacha20poly1305.KeySize {
		return raw, nil
	}

	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive vault key: %w", err)
	}
	return key, nil
}

// GenerateKey returns a fresh random key encoded for configuration
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate vault key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

// Encrypt seals plain and returns a printable token
func (v *Vault) Encrypt(plain string) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plain), nil)
	return prefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt.
// Values this vault did not seal degrade to a best-effort plaintext instead of failing.
func (v *Vault) Decrypt(stored string) string {
	if stored == "" {
		return ""
	}

	if strings.HasPrefix(stored, prefix) {
		plain, err := v.open(strings.TrimPrefix(stored, prefix))
		if err == nil {
			return plain
		}
		v.logger.Warn("Failed to decrypt sealed value, returning it unchanged", zap.Error(err))
		return stored
	}

	if decoded, err := base64.StdEncoding.DecodeString(stored); err == nil && utf8.Valid(decoded) {
		v.logger.Warn("Decrypting legacy base64 value")
		return string(decoded)
	}

	v.logger.Warn("Value was not encrypted by this vault, using it as plaintext")
	return stored
}

func (v *Vault) open(token string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return "", errors.New("token too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open token: %w", err)
	}
	return string(plain), nil
}
