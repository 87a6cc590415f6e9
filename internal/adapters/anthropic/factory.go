package anthropic

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

// Factory creates new instances of AnthropicClient
type Factory struct {
	cfg        config.AnthropicConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFactory creates a new factory for AnthropicClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:        cfg.GetAnthropic(),
		httpClient: &http.Client{Timeout: cfg.GetSummarizer().Timeout},
		logger:     logger,
	}
}

// Defaults returns the model defaults for this provider
func (f *Factory) Defaults() config.ProviderDefaults {
	return f.cfg.ProviderDefaults
}

// CreateLLMClient creates a client for the stored AI configuration
func (f *Factory) CreateLLMClient(ai *core.AIConfig) (core.LLMClient, error) {
	if ai.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}

	model := ai.Model
	if model == "" {
		model = f.cfg.ModelName
	}

	return NewAnthropicClient(f.httpClient, f.cfg.BaseURL, ai.APIKey, f.cfg.APIVersion, model, f.logger), nil
}
