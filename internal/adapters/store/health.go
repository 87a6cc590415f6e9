package store

import (
	"context"
	"time"

	"github.com/mikey/llm-mail-digest/internal/core"
)

// Health gathers the system health snapshot; failures are reported in the Error field
func (s *Store) Health(ctx context.Context) *core.SystemHealth {
	now := s.now()
	health := &core.SystemHealth{CheckTimestamp: now}

	if err := s.db.PingContext(ctx); err != nil {
		health.Error = err.Error()
		return health
	}

	var active int
	query := s.db.Rebind(`SELECT COUNT(*) FROM email_accounts WHERE is_active = ?`)
	if err := s.db.GetContext(ctx, &active, query, true); err != nil {
		health.Error = err.Error()
		return health
	}
	health.ActiveAccounts = active

	var recent int
	query = s.db.Rebind(`SELECT COUNT(*) FROM processed_emails WHERE created_at >= ?`)
	if err := s.db.GetContext(ctx, &recent, query, now.Add(-24*time.Hour)); err != nil {
		health.Error = err.Error()
		return health
	}
	health.EmailsLast24h = recent

	ai, err := s.GetAIConfig(ctx)
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.AIConfigured = ai != nil

	notifier, err := s.GetNotifierConfig(ctx)
	if err != nil {
		health.Error = err.Error()
		return health
	}
	health.TelegramConfigured = notifier != nil

	health.DatabaseConnected = true
	return health
}
