package summarizer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/utils"
)

// ClientFactory builds LLM clients for stored configurations
type ClientFactory interface {
	Catalogue
	CreateLLMClient(ai *core.AIConfig) (core.LLMClient, error)
}

// Factory creates summarizer services for the active AI configuration
type Factory struct {
	clients  ClientFactory
	settings config.SummarizerConfig
	text     *utils.TextProcessor
	recorder Recorder
	logger   *zap.Logger
}

// NewFactory creates a new summarizer factory; recorder may be nil
func NewFactory(
	clients ClientFactory,
	settings config.SummarizerConfig,
	text *utils.TextProcessor,
	recorder Recorder,
	logger *zap.Logger,
) *Factory {
	return &Factory{
		clients:  clients,
		settings: settings,
		text:     text,
		recorder: recorder,
		logger:   logger,
	}
}

// ForConfig builds a summarizer for cfg; a nil cfg yields a fallback-only summarizer
func (f *Factory) ForConfig(cfg *core.AIConfig) (core.Summarizer, error) {
	svc, err := f.build(cfg)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// Providers returns the provider catalogue
func (f *Factory) Providers() []ProviderInfo {
	return Providers(f.clients)
}

// Catalogue exposes the provider set for input validation
func (f *Factory) Catalogue() Catalogue {
	return f.clients
}

// Validate checks a stored configuration statically, then with a live round trip
func (f *Factory) Validate(ctx context.Context, cfg *core.AIConfig) *core.ValidationReport {
	report := &core.ValidationReport{Errors: []string{}, Warnings: []string{}}
	if cfg == nil {
		report.Errors = append(report.Errors, "AI configuration not found")
		return report
	}

	provider := strings.ToLower(cfg.Provider)
	if !f.clients.Supports(provider) {
		report.Errors = append(report.Errors, "Unsupported provider: "+cfg.Provider)
	}
	if cfg.APIKey == "" && provider != BedrockProvider {
		report.Errors = append(report.Errors, "API key is missing or could not be decrypted")
	}
	if len(report.Errors) > 0 {
		return report
	}

	svc, err := f.build(cfg)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}

	live := svc.Validate(ctx)
	live.Errors = append(report.Errors, live.Errors...)
	live.Warnings = append(report.Warnings, live.Warnings...)
	live.Valid = len(live.Errors) == 0
	return live
}

func (f *Factory) build(cfg *core.AIConfig) (*Service, error) {
	svc := &Service{
		prompts:  NewPromptBuilder(f.settings.PromptTemplate, f.settings.MaxContentChars, f.text),
		timeout:  f.settings.Timeout,
		recorder: f.recorder,
		logger:   f.logger,
	}
	if cfg == nil {
		return svc, nil
	}

	client, err := f.clients.CreateLLMClient(cfg)
	if err != nil {
		return nil, err
	}

	svc.client = client
	svc.cfg = *cfg
	if defaults, ok := f.clients.Defaults(cfg.Provider); ok {
		if svc.cfg.MaxTokens <= 0 {
			svc.cfg.MaxTokens = defaults.MaxTokens
		}
	}

	f.logger.Info("Summarizer ready",
		zap.String("provider", client.Provider()),
		zap.String("model", client.Model()))
	return svc, nil
}
