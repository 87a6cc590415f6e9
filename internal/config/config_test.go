package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	server := cfg.GetServer()
	assert.Equal(t, "0.0.0.0:8080", server.ListenAddress)
	assert.Equal(t, 15*time.Second, server.ShutdownTimeout)
	assert.Equal(t, "release", server.GinMode)

	st := cfg.GetStore()
	assert.Equal(t, "sqlite", st.Driver)
	assert.Equal(t, 720*time.Hour, st.Retention)

	pipeline := cfg.GetPipeline()
	assert.Equal(t, 24*time.Hour, pipeline.DefaultLookback)
	assert.Equal(t, time.Hour, pipeline.WatermarkOverlap)
	assert.False(t, pipeline.AlertOnAccountFailure)

	assert.Equal(t, 20, cfg.GetFilter().MinContentLength)
	assert.Equal(t, "gpt-3.5-turbo", cfg.GetOpenAI().ModelName)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", cfg.GetBedrock().ModelName)
	assert.InDelta(t, 0.3, cfg.GetAnthropic().Temperature, 0.0001)
	assert.Equal(t, "memory", cfg.GetCache().Type)
	assert.Equal(t, 168*time.Hour, cfg.GetCache().TTL)
	assert.True(t, cfg.GetSMTP().StartTLS)
	assert.Equal(t, LoggingConfig{Level: "info", Format: "json"}, cfg.GetLogging())
}

func TestMalformedDurationFallsBack(t *testing.T) {
	v := NewEmptyViper()
	v.Set("server.shutdown_timeout", "soon")
	v.Set("summarizer.timeout", "90s")
	cfg := NewFromViper(v)

	assert.Equal(t, 15*time.Second, cfg.GetServer().ShutdownTimeout)
	assert.Equal(t, 90*time.Second, cfg.GetSummarizer().Timeout)

	_, err := cfg.GetDuration("server.shutdown_timeout")
	assert.Error(t, err)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest.yaml")
	content := `
server:
  listen_address: 127.0.0.1:9090
store:
  driver: postgres
  dsn: postgres://digest@localhost/digest
filter:
  allowed_domains:
    - example.com
    - partner.org
cache:
  type: redis
  redis_addr: redis:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.GetServer().ListenAddress)
	assert.Equal(t, "postgres", cfg.GetStore().Driver)
	assert.Equal(t, []string{"example.com", "partner.org"}, cfg.GetFilter().AllowedDomains)
	assert.Equal(t, "redis:6379", cfg.GetCache().RedisAddr)
	// untouched keys keep their defaults
	assert.Equal(t, "gemini-pro", cfg.GetGemini().ModelName)
}

func TestNewFromFileMissing(t *testing.T) {
	_, err := NewFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  api_secret_key: from-file\n"), 0600))

	t.Setenv("MAIL_DIGEST_SERVER_API_SECRET_KEY", "from-env")
	t.Setenv("MAIL_DIGEST_PIPELINE_ALERT_ON_ACCOUNT_FAILURE", "true")

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GetServer().APISecretKey)
	assert.True(t, cfg.GetPipeline().AlertOnAccountFailure)
}
