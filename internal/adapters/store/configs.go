package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mikey/llm-mail-digest/internal/core"
)

const aiConfigColumns = `id, provider, model, api_key_encrypted, max_tokens, temperature,
	custom_prompt, enable_sentiment_analysis, is_active, created_at`

const notifierConfigColumns = `id, channel, bot_token, chat_id, username, is_active, created_at`

// GetAIConfig returns the active AI configuration, or nil when none is set
func (s *Store) GetAIConfig(ctx context.Context) (*core.AIConfig, error) {
	var cfg core.AIConfig
	query := s.db.Rebind(`SELECT ` + aiConfigColumns + ` FROM ai_config
		WHERE is_active = ? ORDER BY created_at DESC LIMIT 1`)
	if err := s.db.GetContext(ctx, &cfg, query, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, s.persistenceErr("get ai config", err)
	}
	return &cfg, nil
}

// SetAIConfig deactivates the current configuration and inserts cfg as the active one
func (s *Store) SetAIConfig(ctx context.Context, cfg *core.AIConfig) (*core.AIConfig, error) {
	row := *cfg
	row.ID = uuid.NewString()
	row.IsActive = true
	row.CreatedAt = s.now()
	row.APIKey = ""

	err := s.replaceActive(ctx, "ai_config", `INSERT INTO ai_config (`+aiConfigColumns+`)
		VALUES (:id, :provider, :model, :api_key_encrypted, :max_tokens, :temperature,
			:custom_prompt, :enable_sentiment_analysis, :is_active, :created_at)`, &row)
	if err != nil {
		return nil, s.persistenceErr("set ai config", err)
	}

	s.AppendLog(ctx, &core.SystemLog{
		EventType: "ai_config_updated",
		Message:   "AI configuration updated: " + row.Provider,
		Severity:  core.SeverityInfo,
	})
	return &row, nil
}

// GetNotifierConfig returns the active notifier configuration, or nil when none is set
func (s *Store) GetNotifierConfig(ctx context.Context) (*core.NotifierConfig, error) {
	var cfg core.NotifierConfig
	query := s.db.Rebind(`SELECT ` + notifierConfigColumns + ` FROM notifier_config
		WHERE is_active = ? ORDER BY created_at DESC LIMIT 1`)
	if err := s.db.GetContext(ctx, &cfg, query, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, s.persistenceErr("get notifier config", err)
	}
	return &cfg, nil
}

// SetNotifierConfig deactivates the current configuration and inserts cfg as the active one
func (s *Store) SetNotifierConfig(ctx context.Context, cfg *core.NotifierConfig) (*core.NotifierConfig, error) {
	row := *cfg
	row.ID = uuid.NewString()
	row.IsActive = true
	row.CreatedAt = s.now()

	err := s.replaceActive(ctx, "notifier_config", `INSERT INTO notifier_config (`+notifierConfigColumns+`)
		VALUES (:id, :channel, :bot_token, :chat_id, :username, :is_active, :created_at)`, &row)
	if err != nil {
		return nil, s.persistenceErr("set notifier config", err)
	}

	s.AppendLog(ctx, &core.SystemLog{
		EventType: "telegram_config_updated",
		Message:   fmt.Sprintf("Notifier configuration updated (%s)", row.Channel),
		Severity:  core.SeverityInfo,
	})
	return &row, nil
}

// replaceActive keeps a single active row per table inside one transaction
func (s *Store) replaceActive(ctx context.Context, table, insert string, row any) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deactivate := tx.Rebind(`UPDATE ` + table + ` SET is_active = ? WHERE is_active = ?`)
	if _, err := tx.ExecContext(ctx, deactivate, false, true); err != nil {
		return fmt.Errorf("failed to deactivate %s: %w", table, err)
	}

	if _, err := sqlx.NamedExecContext(ctx, tx, insert, row); err != nil {
		return err
	}

	return tx.Commit()
}
