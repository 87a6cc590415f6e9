package summarizer

import (
	"strings"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

// BedrockProvider authenticates with AWS credentials instead of a stored key
const BedrockProvider = "bedrock"

// Catalogue is the set of providers a client factory can build
type Catalogue interface {
	Providers() []string
	Supports(provider string) bool
	Defaults(provider string) (config.ProviderDefaults, bool)
}

// ProviderInfo describes one provider for configuration screens
type ProviderInfo struct {
	Name               string   `json:"name"`
	DefaultModel       string   `json:"default_model"`
	Models             []string `json:"models"`
	DefaultMaxTokens   int      `json:"default_max_tokens"`
	DefaultTemperature float32  `json:"default_temperature"`
	RequiresAPIKey     bool     `json:"requires_api_key"`
	Notes              string   `json:"notes"`
}

var knownModels = map[string][]string{
	"openai":    {"gpt-3.5-turbo", "gpt-3.5-turbo-16k", "gpt-4", "gpt-4-turbo-preview"},
	"anthropic": {"claude-3-haiku-20240307", "claude-3-sonnet-20240229", "claude-3-opus-20240229"},
	"google":    {"gemini-pro", "gemini-pro-vision"},
	"bedrock":   {"anthropic.claude-3-haiku-20240307-v1:0", "anthropic.claude-3-sonnet-20240229-v1:0", "amazon.titan-text-express-v1"},
}

var providerNotes = map[string]string{
	"openai":    "Most cost-effective for email summaries",
	"anthropic": "Fast and efficient for simple tasks",
	"google":    "Good alternative option",
	"bedrock":   "Uses AWS credentials from the environment",
}

// Providers lists every supported provider with its defaults
func Providers(c Catalogue) []ProviderInfo {
	names := c.Providers()
	infos := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		defaults, _ := c.Defaults(name)
		infos = append(infos, ProviderInfo{
			Name:               name,
			DefaultModel:       defaults.ModelName,
			Models:             knownModels[name],
			DefaultMaxTokens:   defaults.MaxTokens,
			DefaultTemperature: defaults.Temperature,
			RequiresAPIKey:     name != BedrockProvider,
			Notes:              providerNotes[name],
		})
	}
	return infos
}

// ValidateAIConfig checks an input payload and fills provider defaults.
// The returned configuration carries the plaintext key in APIKey; callers encrypt it.
func ValidateAIConfig(input *core.AIConfigInput, c Catalogue) (*core.AIConfig, error) {
	verr := &core.ValidationError{}

	provider := strings.ToLower(strings.TrimSpace(input.Provider))
	switch {
	case provider == "":
		verr.Add("Provider is required")
	case !c.Supports(provider):
		verr.Add("Unsupported provider: %s", input.Provider)
	}

	if input.APIKey == "" && provider != BedrockProvider {
		verr.Add("API key is required")
	}
	if input.MaxTokens < 0 {
		verr.Add("max_tokens must be positive")
	}
	if input.Temperature != nil && (*input.Temperature < 0 || *input.Temperature > 2) {
		verr.Add("temperature must be between 0 and 2")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	defaults, _ := c.Defaults(provider)
	cfg := &core.AIConfig{
		Provider:                provider,
		Model:                   input.Model,
		APIKey:                  input.APIKey,
		MaxTokens:               input.MaxTokens,
		CustomPrompt:            input.CustomPrompt,
		EnableSentimentAnalysis: input.EnableSentimentAnalysis,
		IsActive:                true,
	}
	if cfg.Model == "" {
		cfg.Model = defaults.ModelName
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if input.Temperature != nil {
		cfg.Temperature = *input.Temperature
	} else {
		cfg.Temperature = float64(defaults.Temperature)
	}

	return cfg, nil
}
