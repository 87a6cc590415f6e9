package vault

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	v, err := NewFromPassphrase(key, zap.NewNop())
	require.NoError(t, err)
	return v
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := newTestVault(t)

	for _, plain := range []string{"hunter2", "", "pässwörd with ünïcode", strings.Repeat("x", 4096)} {
		sealed, err := v.Encrypt(plain)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sealed, prefix))
		if plain != "" {
			assert.NotContains(t, sealed, plain)
		}
		assert.Equal(t, plain, v.Decrypt(sealed))
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	v := newTestVault(t)

	a, err := v.Encrypt("same")
	require.NoError(t, err)
	b, err := v.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptDegradesGracefully(t *testing.T) {
	v := newTestVault(t)

	t.Run("plaintext", func(t *testing.T) {
		assert.Equal(t, "not-encrypted!", v.Decrypt("not-encrypted!"))
	})

	t.Run("legacy base64", func(t *testing.T) {
		legacy := base64.StdEncoding.EncodeToString([]byte("app-password"))
		assert.Equal(t, "app-password", v.Decrypt(legacy))
	})

	t.Run("foreign key", func(t *testing.T) {
		other := newTestVault(t)
		sealed, err := other.Encrypt("secret")
		require.NoError(t, err)
		assert.Equal(t, sealed, v.Decrypt(sealed))
	})

	t.Run("corrupt token", func(t *testing.T) {
		assert.Equal(t, "v1.!!!", v.Decrypt("v1.!!!"))
	})
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("correct horse battery staple")
	require.NoError(t, err)
	b, err := DeriveKey("correct horse battery staple")
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.Equal(t, a, b)

	encoded, err := GenerateKey()
	require.NoError(t, err)
	raw, err := DeriveKey(encoded)
	require.NoError(t, err)
	decoded, err := base64.RawURLEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, decoded, raw)
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New([]byte("short"), nil)
	assert.Error(t, err)
}

func TestKeyFromKeyringCreatesOnce(t *testing.T) {
	ring := keyring.NewArrayKeyring(nil)

	first, err := keyFromKeyring(ring)
	require.NoError(t, err)
	second, err := keyFromKeyring(ring)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewFromConfigEphemeral(t *testing.T) {
	v := config.NewEmptyViper()
	cfg := config.NewFromViper(v)

	vault, err := NewFromConfig(cfg, zap.NewNop())
	require.NoError(t, err)

	sealed, err := vault.Encrypt("pw")
	require.NoError(t, err)
	assert.Equal(t, "pw", vault.Decrypt(sealed))
}
