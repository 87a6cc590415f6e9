package config

import "time"

// ServerConfig represents the HTTP surface configuration
type ServerConfig struct {
	ListenAddress   string
	APISecretKey    string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	GinMode         string
}

// StoreConfig represents the state store configuration
type StoreConfig struct {
	Driver           string
	DSN              string
	MaxOpenConns     int
	Retention        time.Duration
	CleanupFrequency time.Duration
}

// VaultConfig represents the credential vault configuration
type VaultConfig struct {
	Key             string
	UseKeyring      bool
	KeyringService  string
	KeyringDir      string
	KeyringPassword string
}

// PipelineConfig represents the orchestrator configuration
type PipelineConfig struct {
	DefaultLookback       time.Duration
	WatermarkOverlap      time.Duration
	AlertOnAccountFailure bool
	IMAPTimeout           time.Duration
}

// FilterConfig represents the filter policy configuration
type FilterConfig struct {
	MinContentLength int
	AllowedDomains   []string
}

// SummarizerConfig represents provider-independent summarizer settings
type SummarizerConfig struct {
	MaxContentChars int
	Timeout         time.Duration
	PromptTemplate  string
}

// ProviderDefaults holds the model defaults applied to a stored AI configuration
type ProviderDefaults struct {
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	ProviderDefaults
	BaseURL string
}

// AnthropicConfig represents the configuration for the Anthropic Messages API
type AnthropicConfig struct {
	ProviderDefaults
	BaseURL    string
	APIVersion string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	ProviderDefaults
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	ProviderDefaults
	Region string
}

// NotifierConfig represents channel-independent notifier settings
type NotifierConfig struct {
	Timeout         time.Duration
	ValidateTimeout time.Duration
}

// TelegramConfig represents the Telegram Bot API endpoint
type TelegramConfig struct {
	BaseURL string
}

// LineConfig represents the LINE Messaging API settings
type LineConfig struct {
	ChannelToken string
}

// SMTPConfig represents the outbound SMTP relay used by the smtp channel
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	StartTLS bool
}

// CacheConfig represents the seen-message cache configuration
type CacheConfig struct {
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
}

// LoggingConfig represents the logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		APISecretKey:    c.GetString("server.api_secret_key"),
		ReadTimeout:     c.durationOr("server.read_timeout", 30*time.Second),
		WriteTimeout:    c.durationOr("server.write_timeout", 180*time.Second),
		ShutdownTimeout: c.durationOr("server.shutdown_timeout", 15*time.Second),
		GinMode:         c.GetString("server.gin_mode"),
	}
}

// GetStore returns the state store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Driver:           c.GetString("store.driver"),
		DSN:              c.GetString("store.dsn"),
		MaxOpenConns:     c.GetInt("store.max_open_conns"),
		Retention:        c.durationOr("store.retention", 0),
		CleanupFrequency: c.durationOr("store.cleanup_frequency", 24*time.Hour),
	}
}

// GetVault returns the credential vault configuration
func (c *Config) GetVault() VaultConfig {
	return VaultConfig{
		Key:             c.GetString("vault.key"),
		UseKeyring:      c.GetBool("vault.use_keyring"),
		KeyringService:  c.GetString("vault.keyring_service"),
		KeyringDir:      c.GetString("vault.keyring_dir"),
		KeyringPassword: c.GetString("vault.keyring_password"),
	}
}

// GetPipeline returns the orchestrator configuration
func (c *Config) GetPipeline() PipelineConfig {
	return PipelineConfig{
		DefaultLookback:       c.durationOr("pipeline.default_lookback", 24*time.Hour),
		WatermarkOverlap:      c.durationOr("pipeline.watermark_overlap", time.Hour),
		AlertOnAccountFailure: c.GetBool("pipeline.alert_on_account_failure"),
		IMAPTimeout:           c.durationOr("pipeline.imap_timeout", time.Minute),
	}
}

// GetFilter returns the filter policy configuration
func (c *Config) GetFilter() FilterConfig {
	return FilterConfig{
		MinContentLength: c.GetInt("filter.min_content_length"),
		AllowedDomains:   c.GetStringSlice("filter.allowed_domains"),
	}
}

// GetSummarizer returns the summarizer configuration
func (c *Config) GetSummarizer() SummarizerConfig {
	return SummarizerConfig{
		MaxContentChars: c.GetInt("summarizer.max_content_chars"),
		Timeout:         c.durationOr("summarizer.timeout", time.Minute),
		PromptTemplate:  c.GetString("summarizer.prompt_template"),
	}
}

func (c *Config) providerDefaults(prefix, modelKey string) ProviderDefaults {
	return ProviderDefaults{
		ModelName:   c.GetString(prefix + "." + modelKey),
		MaxTokens:   c.GetInt(prefix + ".max_tokens"),
		Temperature: float32(c.GetFloat64(prefix + ".temperature")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		ProviderDefaults: c.providerDefaults("openai", "model_name"),
		BaseURL:          c.GetString("openai.base_url"),
	}
}

// GetAnthropic returns the Anthropic configuration
func (c *Config) GetAnthropic() AnthropicConfig {
	return AnthropicConfig{
		ProviderDefaults: c.providerDefaults("anthropic", "model_name"),
		BaseURL:          c.GetString("anthropic.base_url"),
		APIVersion:       c.GetString("anthropic.api_version"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		ProviderDefaults: c.providerDefaults("gemini", "model_name"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		ProviderDefaults: c.providerDefaults("bedrock", "model_id"),
		Region:           c.GetString("bedrock.region"),
	}
}

// GetNotifier returns the notifier configuration
func (c *Config) GetNotifier() NotifierConfig {
	return NotifierConfig{
		Timeout:         c.durationOr("notifier.timeout", 30*time.Second),
		ValidateTimeout: c.durationOr("notifier.validate_timeout", 10*time.Second),
	}
}

// GetTelegram returns the Telegram configuration
func (c *Config) GetTelegram() TelegramConfig {
	return TelegramConfig{
		BaseURL: c.GetString("telegram.base_url"),
	}
}

// GetLine returns the LINE configuration
func (c *Config) GetLine() LineConfig {
	return LineConfig{
		ChannelToken: c.GetString("line.channel_token"),
	}
}

// GetSMTP returns the SMTP relay configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Host:     c.GetString("smtp.host"),
		Port:     c.GetInt("smtp.port"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		From:     c.GetString("smtp.from"),
		StartTLS: c.GetBool("smtp.starttls"),
	}
}

// GetCache returns the seen cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		TTL:              c.durationOr("cache.ttl", 7*24*time.Hour),
		CleanupFrequency: c.durationOr("cache.cleanup_frequency", time.Hour),
		RedisAddr:        c.GetString("cache.redis_addr"),
		RedisPassword:    c.GetString("cache.redis_password"),
		RedisDB:          c.GetInt("cache.redis_db"),
	}
}

// GetLogging returns the logger configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
