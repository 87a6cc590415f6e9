package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/summarizer"
)

// Runner triggers one pipeline run
type Runner interface {
	Run(ctx context.Context, opts core.RunOptions) *core.RunReport
}

// AIConfigurator validates AI configurations and lists the supported providers
type AIConfigurator interface {
	Catalogue() summarizer.Catalogue
	Providers() []summarizer.ProviderInfo
	Validate(ctx context.Context, cfg *core.AIConfig) *core.ValidationReport
}

// Options holds the handler settings read from configuration
type Options struct {
	// ProbeLookback bounds the unseen-message count reported by account tests
	ProbeLookback time.Duration
	// Retention is the default cleanup window when a request names none
	Retention time.Duration
	// RequiredSettings and OptionalSettings are reported by the health check environment probe
	RequiredSettings map[string]bool
	OptionalSettings map[string]bool
	Version          string
}

// Handler serves the processor, configuration and health endpoints
type Handler struct {
	store     core.StateStore
	vault     core.Vault
	dialer    core.MailboxDialer
	runner    Runner
	ai        AIConfigurator
	notifiers core.NotifierFactory
	opts      Options
	logger    *zap.Logger
	startedAt time.Time
	now       func() time.Time
}

// NewHandler creates a new handler
func NewHandler(
	store core.StateStore,
	vault core.Vault,
	dialer core.MailboxDialer,
	runner Runner,
	ai AIConfigurator,
	notifiers core.NotifierFactory,
	opts Options,
	logger *zap.Logger,
) *Handler {
	if opts.ProbeLookback <= 0 {
		opts.ProbeLookback = 24 * time.Hour
	}
	if opts.Retention <= 0 {
		opts.Retention = 30 * 24 * time.Hour
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	return &Handler{
		store:     store,
		vault:     vault,
		dialer:    dialer,
		runner:    runner,
		ai:        ai,
		notifiers: notifiers,
		opts:      opts,
		logger:    logger,
		startedAt: time.Now(),
		now:       time.Now,
	}
}
