package vault

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/mikey/llm-mail-digest/internal/config"
)

const keyringItem = "encryption-key"

// openKeyring returns a configured keyring instance
func openKeyring(cfg config.VaultConfig) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: cfg.KeyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  cfg.KeyringDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(cfg.KeyringPassword),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

// keyFromKeyring loads the vault key, creating and storing one on first use
func keyFromKeyring(ring keyring.Keyring) ([]byte, error) {
	item, err := ring.Get(keyringItem)
	if err == nil && len(item.Data) == chacha20poly1305.KeySize {
		return item.Data, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to read %q from keyring: %w", keyringItem, err)
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate vault key: %w", err)
	}
	if err := ring.Set(keyring.Item{
		Key:         keyringItem,
		Data:        key,
		Label:       "llm-mail-digest vault key",
		Description: "Encrypts stored mailbox passwords and API keys",
	}); err != nil {
		return nil, fmt.Errorf("failed to store %q in keyring: %w", keyringItem, err)
	}
	return key, nil
}

// NewFromConfig picks the key source: configured secret, then OS keyring, then an ephemeral key
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (*Vault, error) {
	vc := cfg.GetVault()

	if vc.Key != "" {
		return NewFromPassphrase(vc.Key, logger)
	}

	if vc.UseKeyring {
		ring, err := openKeyring(vc)
		if err != nil {
			return nil, err
		}
		key, err := keyFromKeyring(ring)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded vault key from keyring", zap.String("service", vc.KeyringService))
		return New(key, logger)
	}

	logger.Warn("No vault key configured, using an ephemeral key; stored secrets will not survive a restart")
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate vault key: %w", err)
	}
	return New(key, logger)
}
