package openai

import (
	"errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

// Factory creates new instances of OpenAIClient
type Factory struct {
	cfg    config.OpenAIConfig
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenAIClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg.GetOpenAI(),
		logger: logger,
	}
}

// Defaults returns the model defaults for this provider
func (f *Factory) Defaults() config.ProviderDefaults {
	return f.cfg.ProviderDefaults
}

// CreateLLMClient creates a client for the stored AI configuration
func (f *Factory) CreateLLMClient(ai *core.AIConfig) (core.LLMClient, error) {
	if ai.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(ai.APIKey)
	if f.cfg.BaseURL != "" {
		clientCfg.BaseURL = f.cfg.BaseURL
	}

	model := ai.Model
	if model == "" {
		model = f.cfg.ModelName
	}

	return NewOpenAIClient(openai.NewClientWithConfig(clientCfg), model, f.logger), nil
}
