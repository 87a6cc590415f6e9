package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/llm-mail-digest/")
	v.AddConfigPath("$HOME/.llm-mail-digest")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("MAIL_DIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromFile loads configuration from an explicit file path
func NewFromFile(path string) (*Config, error) {
	v := NewEmptyViper()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("MAIL_DIGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	// HTTP server
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.api_secret_key", "")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.gin_mode", "release")

	// State store
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "/data/mail_digest.db")
	v.SetDefault("store.max_open_conns", 5)
	v.SetDefault("store.retention", "720h")
	v.SetDefault("store.cleanup_frequency", "24h")

	// Credential vault
	v.SetDefault("vault.key", "")
	v.SetDefault("vault.use_keyring", false)
	v.SetDefault("vault.keyring_service", "llm-mail-digest")
	v.SetDefault("vault.keyring_dir", "~/.config/llm-mail-digest/keyring")
	v.SetDefault("vault.keyring_password", "llm-mail-digest-file-key")

	// Pipeline
	v.SetDefault("pipeline.default_lookback", "24h")
	v.SetDefault("pipeline.watermark_overlap", "1h")
	v.SetDefault("pipeline.alert_on_account_failure", false)
	v.SetDefault("pipeline.imap_timeout", "60s")

	// Filter policy
	v.SetDefault("filter.min_content_length", 20)
	v.SetDefault("filter.allowed_domains", []string{})

	// Summarizer
	v.SetDefault("summarizer.max_content_chars", 3000)
	v.SetDefault("summarizer.timeout", "60s")
	v.SetDefault("summarizer.prompt_template", "Summarize this email in 2-3 sentences, highlighting the key action items and important information:")

	// OpenAI defaults
	v.SetDefault("openai.model_name", "gpt-3.5-turbo")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.max_tokens", 150)
	v.SetDefault("openai.temperature", 0.3)

	// Anthropic defaults
	v.SetDefault("anthropic.model_name", "claude-3-haiku-20240307")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("anthropic.api_version", "2023-06-01")
	v.SetDefault("anthropic.max_tokens", 150)
	v.SetDefault("anthropic.temperature", 0.3)

	// Gemini defaults
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 150)
	v.SetDefault("gemini.temperature", 0.3)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 150)
	v.SetDefault("bedrock.temperature", 0.3)

	// Notifier channels
	v.SetDefault("notifier.timeout", "30s")
	v.SetDefault("notifier.validate_timeout", "10s")
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("line.channel_token", "")
	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "mail-digest@localhost")
	v.SetDefault("smtp.starttls", true)

	// Seen cache
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "168h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// durationOr returns the parsed duration for key, or def when the value is malformed
func (c *Config) durationOr(key string, def time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil {
		return def
	}
	return d
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
