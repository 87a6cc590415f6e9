package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/filter"
	"github.com/mikey/llm-mail-digest/internal/whitelist"
)

// FilterFactory creates the message filter policy based on configuration
type FilterFactory struct {
	cfg    config.FilterConfig
	logger *zap.Logger
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger) *FilterFactory {
	return &FilterFactory{
		cfg:    cfg.GetFilter(),
		logger: logger,
	}
}

// CreatePolicy builds the policy with the configured allow-list
func (f *FilterFactory) CreatePolicy() *filter.Policy {
	allowed := whitelist.NewChecker(f.cfg.AllowedDomains, f.logger)
	return filter.NewPolicy(f.cfg.MinContentLength, allowed, f.logger)
}
