package di

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/adapters/mailbox"
	"github.com/mikey/llm-mail-digest/internal/adapters/store"
	"github.com/mikey/llm-mail-digest/internal/api"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/factory"
	"github.com/mikey/llm-mail-digest/internal/logging"
	"github.com/mikey/llm-mail-digest/internal/metrics"
	"github.com/mikey/llm-mail-digest/internal/normalizer"
	"github.com/mikey/llm-mail-digest/internal/ports"
	"github.com/mikey/llm-mail-digest/internal/summarizer"
	"github.com/mikey/llm-mail-digest/internal/utils"
	"github.com/mikey/llm-mail-digest/internal/vault"
)

// BuildContainer creates and configures a dependency injection container for the server
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := providePipeline(container); err != nil {
		return nil, err
	}

	// Register HTTP surface
	if err := container.Provide(func(
		cfg *config.Config,
		st core.StateStore,
		v core.Vault,
		dialer core.MailboxDialer,
		pipeline *core.PipelineService,
		summarizers *summarizer.Factory,
		notifiers core.NotifierFactory,
		logger *zap.Logger,
	) *api.Handler {
		return api.NewHandler(st, v, dialer, pipeline, summarizers, notifiers, handlerOptions(cfg), logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config, h *api.Handler, logger *zap.Logger) ports.Server {
		server := cfg.GetServer()
		if server.GinMode != "" {
			gin.SetMode(server.GinMode)
		}
		return api.NewServer(server, api.NewRouter(h, server.APISecretKey, logger), logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// providePipeline registers everything the pipeline service depends on
func providePipeline(container *dig.Container) error {
	providers := []any{
		metrics.NewRecorder,

		// Credential vault
		func(cfg *config.Config, logger *zap.Logger) (core.Vault, error) {
			return vault.NewFromConfig(cfg, logger)
		},

		// State store
		func(cfg *config.Config, logger *zap.Logger) (core.StateStore, error) {
			return store.New(cfg.GetStore(), logger)
		},

		// Seen cache; nil when disabled
		factory.NewCacheFactory,
		func(f *factory.CacheFactory) (factory.SeenCache, error) {
			return f.CreateSeenCache(context.Background())
		},

		// Mailbox, normalizer and filter policy
		func(cfg *config.Config, logger *zap.Logger) core.MailboxDialer {
			return mailbox.NewDialer(logger, cfg.GetPipeline().IMAPTimeout)
		},
		utils.NewTextProcessor,
		func(text *utils.TextProcessor, logger *zap.Logger) core.Normalizer {
			return normalizer.New(text, logger)
		},
		factory.NewFilterFactory,
		func(f *factory.FilterFactory) core.FilterPolicy {
			return f.CreatePolicy()
		},

		// Summarizer and notifier factories
		factory.NewLLMFactory,
		func(
			llm *factory.LLMFactory,
			cfg *config.Config,
			text *utils.TextProcessor,
			recorder *metrics.Recorder,
			logger *zap.Logger,
		) *summarizer.Factory {
			return summarizer.NewFactory(llm, cfg.GetSummarizer(), text, recorder, logger)
		},
		func(cfg *config.Config, recorder *metrics.Recorder, logger *zap.Logger) core.NotifierFactory {
			return factory.NewNotifierFactory(cfg, recorder, logger)
		},

		// Pipeline service
		func(
			cfg *config.Config,
			st core.StateStore,
			dialer core.MailboxDialer,
			norm core.Normalizer,
			policy core.FilterPolicy,
			summarizers *summarizer.Factory,
			notifiers core.NotifierFactory,
			v core.Vault,
			seen factory.SeenCache,
			recorder *metrics.Recorder,
			logger *zap.Logger,
		) *core.PipelineService {
			var seenCache core.SeenCache
			if seen != nil {
				seenCache = seen
			}
			return core.NewPipelineService(st, dialer, norm, policy, summarizers, notifiers, v,
				seenCache, recorder, logger, pipelineOptions(cfg))
		},
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return err
		}
	}
	return nil
}

func pipelineOptions(cfg *config.Config) core.PipelineOptions {
	p := cfg.GetPipeline()
	return core.PipelineOptions{
		DefaultLookback:       p.DefaultLookback,
		WatermarkOverlap:      p.WatermarkOverlap,
		AlertOnAccountFailure: p.AlertOnAccountFailure,
	}
}

func handlerOptions(cfg *config.Config) api.Options {
	return api.Options{
		ProbeLookback: cfg.GetPipeline().DefaultLookback,
		Retention:     cfg.GetStore().Retention,
		RequiredSettings: map[string]bool{
			"MAIL_DIGEST_SERVER_API_SECRET_KEY": cfg.GetString("server.api_secret_key") != "",
			"MAIL_DIGEST_STORE_DSN":             cfg.GetString("store.dsn") != "",
		},
		OptionalSettings: map[string]bool{
			"MAIL_DIGEST_VAULT_KEY":          cfg.GetString("vault.key") != "" || cfg.GetBool("vault.use_keyring"),
			"MAIL_DIGEST_LINE_CHANNEL_TOKEN": cfg.GetString("line.channel_token") != "",
			"MAIL_DIGEST_SMTP_USERNAME":      cfg.GetString("smtp.username") != "",
		},
	}
}
