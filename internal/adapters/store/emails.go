package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mikey/llm-mail-digest/internal/core"
)

const emailColumns = `id, account_id, message_id, subject, sender, recipient, received_date,
	content_preview, summary, sentiment, priority, has_attachments, telegram_sent,
	telegram_sent_at, notification_status, created_at`

// IsProcessed reports whether the (account, message) pair has been stored
func (s *Store) IsProcessed(ctx context.Context, accountID, messageID string) (bool, error) {
	var count int
	query := s.db.Rebind(`SELECT COUNT(*) FROM processed_emails WHERE account_id = ? AND message_id = ?`)
	if err := s.db.GetContext(ctx, &count, query, accountID, messageID); err != nil {
		return false, s.persistenceErr("is processed", err)
	}
	return count > 0, nil
}

// StoreProcessed inserts a processed email; a repeated (account, message) pair yields core.ErrDuplicate
func (s *Store) StoreProcessed(ctx context.Context, email *core.ProcessedEmail) (*core.ProcessedEmail, error) {
	row := *email
	row.ID = uuid.NewString()
	row.CreatedAt = s.now()
	row.ReceivedDate = row.ReceivedDate.UTC()
	row.TelegramSent = false
	row.TelegramSentAt = nil
	if row.NotificationStatus == "" {
		row.NotificationStatus = core.NotificationPending
	}
	if row.Sentiment == "" {
		row.Sentiment = core.SentimentNeutral
	}
	if row.Priority == "" {
		row.Priority = core.PriorityNormal
	}

	query := `INSERT INTO processed_emails (` + emailColumns + `)
		VALUES (:id, :account_id, :message_id, :subject, :sender, :recipient, :received_date,
			:content_preview, :summary, :sentiment, :priority, :has_attachments, :telegram_sent,
			:telegram_sent_at, :notification_status, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, &row); err != nil {
		return nil, s.persistenceErr("store processed email", err)
	}
	return &row, nil
}

// MarkNotified records the delivery outcome; only pending rows transition
func (s *Store) MarkNotified(ctx context.Context, id string, success bool) error {
	status := core.NotificationFailed
	var sentAt *time.Time
	if success {
		status = core.NotificationSent
		now := s.now()
		sentAt = &now
	}

	query := s.db.Rebind(`UPDATE processed_emails
		SET telegram_sent = ?, telegram_sent_at = ?, notification_status = ?
		WHERE id = ? AND notification_status = ?`)
	if _, err := s.db.ExecContext(ctx, query, success, sentAt, status, id, core.NotificationPending); err != nil {
		return s.persistenceErr("mark notified", err)
	}
	return nil
}

// RecentEmails returns the newest processed emails with their account address
func (s *Store) RecentEmails(ctx context.Context, limit int) ([]*core.ProcessedEmail, error) {
	if limit <= 0 {
		limit = 20
	}

	var emails []*core.ProcessedEmail
	query := s.db.Rebind(`SELECT p.id, p.account_id, p.message_id, p.subject, p.sender, p.recipient,
			p.received_date, p.content_preview, p.summary, p.sentiment, p.priority, p.has_attachments,
			p.telegram_sent, p.telegram_sent_at, p.notification_status, p.created_at,
			a.email AS account_email
		FROM processed_emails p
		JOIN email_accounts a ON a.id = p.account_id
		ORDER BY p.received_date DESC
		LIMIT ?`)
	if err := s.db.SelectContext(ctx, &emails, query, limit); err != nil {
		return nil, s.persistenceErr("recent emails", err)
	}
	return emails, nil
}

type emailStatsRow struct {
	AccountID      string         `db:"account_id"`
	Email          string         `db:"email"`
	TotalEmails    int            `db:"total_emails"`
	NotifiedEmails int            `db:"notified_emails"`
	LastReceived   sql.NullString `db:"last_received"`
}

// EmailStats aggregates processed emails per active account
func (s *Store) EmailStats(ctx context.Context) ([]*core.EmailStats, error) {
	var rows []emailStatsRow
	query := s.db.Rebind(`SELECT a.id AS account_id, a.email AS email,
			COUNT(p.id) AS total_emails,
			COALESCE(SUM(CASE WHEN p.telegram_sent = ? THEN 1 ELSE 0 END), 0) AS notified_emails,
			MAX(p.received_date) AS last_received
		FROM email_accounts a
		LEFT JOIN processed_emails p ON p.account_id = a.id
		WHERE a.is_active = ?
		GROUP BY a.id, a.email
		ORDER BY a.email`)
	if err := s.db.SelectContext(ctx, &rows, query, true, true); err != nil {
		return nil, s.persistenceErr("email stats", err)
	}

	stats := make([]*core.EmailStats, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, &core.EmailStats{
			AccountID:      r.AccountID,
			Email:          r.Email,
			TotalEmails:    r.TotalEmails,
			NotifiedEmails: r.NotifiedEmails,
			LastReceived:   r.LastReceived.String,
		})
	}
	return stats, nil
}

// CleanupOldEmails deletes processed emails created before the cutoff
func (s *Store) CleanupOldEmails(ctx context.Context, before time.Time) (int64, error) {
	query := s.db.Rebind(`DELETE FROM processed_emails WHERE created_at < ?`)
	res, err := s.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, s.persistenceErr("cleanup old emails", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup")
		return 0, nil
	}
	return deleted, nil
}
