package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mikey/llm-mail-digest/internal/core"
)

const accountColumns = `id, email, provider, imap_host, imap_port, username, encrypted_password,
	is_active, last_check_time, created_at`

// GetActiveAccounts returns every active account ordered by creation time
func (s *Store) GetActiveAccounts(ctx context.Context) ([]*core.Account, error) {
	var accounts []*core.Account
	query := s.db.Rebind(`SELECT ` + accountColumns + ` FROM email_accounts WHERE is_active = ? ORDER BY created_at`)
	if err := s.db.SelectContext(ctx, &accounts, query, true); err != nil {
		return nil, s.persistenceErr("get active accounts", err)
	}
	return accounts, nil
}

// GetAccount returns one account by id
func (s *Store) GetAccount(ctx context.Context, id string) (*core.Account, error) {
	var account core.Account
	query := s.db.Rebind(`SELECT ` + accountColumns + ` FROM email_accounts WHERE id = ?`)
	if err := s.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.E(core.KindPersistence, "get account", core.ErrNotFound)
		}
		return nil, s.persistenceErr("get account", err)
	}
	return &account, nil
}

// AddAccount inserts a new active account; EncryptedPassword must already be sealed
func (s *Store) AddAccount(ctx context.Context, account *core.Account) (*core.Account, error) {
	row := *account
	row.ID = uuid.NewString()
	row.IsActive = true
	row.LastCheckTime = nil
	row.CreatedAt = s.now()

	query := `INSERT INTO email_accounts (` + accountColumns + `)
		VALUES (:id, :email, :provider, :imap_host, :imap_port, :username, :encrypted_password,
			:is_active, :last_check_time, :created_at)`
	if _, err := s.db.NamedExecContext(ctx, query, &row); err != nil {
		return nil, s.persistenceErr("add account", err)
	}

	s.AppendLog(ctx, &core.SystemLog{
		EventType: "email_account_added",
		Message:   "Added email account: " + row.Email,
		Severity:  core.SeverityInfo,
		AccountID: row.ID,
	})

	return &row, nil
}

// DeactivateAccount clears the active flag; rows are never deleted
func (s *Store) DeactivateAccount(ctx context.Context, id string) error {
	query := s.db.Rebind(`UPDATE email_accounts SET is_active = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, false, id)
	if err != nil {
		return s.persistenceErr("deactivate account", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.E(core.KindPersistence, "deactivate account", core.ErrNotFound)
	}

	s.AppendLog(ctx, &core.SystemLog{
		EventType: "email_account_deactivated",
		Message:   fmt.Sprintf("Deactivated email account %s", id),
		Severity:  core.SeverityInfo,
		AccountID: id,
	})
	return nil
}

// AdvanceWatermark records the last successful poll time for an account
func (s *Store) AdvanceWatermark(ctx context.Context, accountID string, at time.Time) error {
	query := s.db.Rebind(`UPDATE email_accounts SET last_check_time = ? WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, at.UTC(), accountID); err != nil {
		return s.persistenceErr("advance watermark", err)
	}
	return nil
}
