package factory

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/adapters/anthropic"
	"github.com/mikey/llm-mail-digest/internal/adapters/bedrock"
	"github.com/mikey/llm-mail-digest/internal/adapters/gemini"
	"github.com/mikey/llm-mail-digest/internal/adapters/openai"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

type providerFactory interface {
	Defaults() config.ProviderDefaults
	CreateLLMClient(ai *core.AIConfig) (core.LLMClient, error)
}

// LLMFactory creates LLM clients for the closed provider set
type LLMFactory struct {
	logger    *zap.Logger
	providers map[string]providerFactory
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		logger: logger,
		providers: map[string]providerFactory{
			openai.ProviderName:    openai.NewFactory(cfg, logger),
			anthropic.ProviderName: anthropic.NewFactory(cfg, logger),
			gemini.ProviderName:    gemini.NewFactory(cfg, logger),
			bedrock.ProviderName:   bedrock.NewFactory(cfg, logger),
		},
	}
}

// Providers returns the supported provider names in sorted order
func (f *LLMFactory) Providers() []string {
	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supports reports whether the provider is part of the set
func (f *LLMFactory) Supports(provider string) bool {
	_, ok := f.providers[strings.ToLower(provider)]
	return ok
}

// Defaults returns the model defaults for a provider
func (f *LLMFactory) Defaults(provider string) (config.ProviderDefaults, bool) {
	p, ok := f.providers[strings.ToLower(provider)]
	if !ok {
		return config.ProviderDefaults{}, false
	}
	return p.Defaults(), true
}

// CreateLLMClient creates a new LLM client for the stored configuration
func (f *LLMFactory) CreateLLMClient(ai *core.AIConfig) (core.LLMClient, error) {
	if ai == nil {
		return nil, fmt.Errorf("no AI configuration")
	}

	p, ok := f.providers[strings.ToLower(ai.Provider)]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s", ai.Provider)
	}

	client, err := p.CreateLLMClient(ai)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Created LLM client",
		zap.String("provider", client.Provider()),
		zap.String("model", client.Model()))
	return client, nil
}
