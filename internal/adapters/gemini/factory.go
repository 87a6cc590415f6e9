package gemini

import (
	"errors"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

// Factory creates new instances of GeminiClient
type Factory struct {
	cfg    config.GeminiConfig
	logger *zap.Logger
}

// NewFactory creates a new factory for GeminiClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg.GetGemini(),
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
		return nil, errors.New("gemini API key is required")
	}

	model := ai.Model
	if model == "" {
		model = f.cfg.ModelName
	}

	return NewGeminiClient(ai.APIKey, model, f.logger), nil
}
