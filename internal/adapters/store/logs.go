package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
)

const logColumns = `id, event_type, message, severity, account_id, metadata, created_at`

// AppendLog writes one system log entry
func (s *Store) AppendLog(ctx context.Context, entry *core.SystemLog) error {
	row := *entry
	row.ID = uuid.NewString()
	row.CreatedAt = s.now()
	if row.Severity == "" {
		row.Severity = core.SeverityInfo
	}

	row.MetadataJSON = ""
	if len(row.Metadata) > 0 {
		data, err := json.Marshal(row.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode log metadata: %w", err)
		}
		row.MetadataJSON = string(data)
	}

	query := `INSERT INTO system_logs (` + logColumns + `)
		VALUES (:id, :event_type, :message, :severity, :account_id, :metadata, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, &row); err != nil {
		s.logger.Error("Failed to write system log",
			zap.String("event_type", row.EventType),
			zap.Error(err))
		return s.persistenceErr("append log", err)
	}
	return nil
}

// ListLogs returns the newest log entries, optionally restricted to one severity
func (s *Store) ListLogs(ctx context.Context, limit int, severity core.Severity) ([]*core.SystemLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		logs []*core.SystemLog
		err  error
	)
	if severity != "" {
		query := s.db.Rebind(`SELECT ` + logColumns + ` FROM system_logs
			WHERE severity = ? ORDER BY created_at DESC LIMIT ?`)
		err = s.db.SelectContext(ctx, &logs, query, severity, limit)
	} else {
		query := s.db.Rebind(`SELECT ` + logColumns + ` FROM system_logs ORDER BY created_at DESC LIMIT ?`)
		err = s.db.SelectContext(ctx, &logs, query, limit)
	}
	if err != nil {
		return nil, s.persistenceErr("list logs", err)
	}

	for _, entry := range logs {
		if entry.MetadataJSON == "" {
			continue
		}
		if err := json.Unmarshal([]byte(entry.MetadataJSON), &entry.Metadata); err != nil {
			s.logger.Debug("Ignoring malformed log metadata", zap.String("id", entry.ID))
		}
	}
	return logs, nil
}
