package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newTestStore(t *testing.T) (*Store, *fixedClock) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := New(config.StoreConfig{
		Driver: "sqlite",
		DSN:    "file:" + name + "?mode=memory&cache=shared",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := &fixedClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	s.SetClock(clock.Now)
	return s, clock
}

func addAccount(t *testing.T, s *Store, email string) *core.Account {
	t.Helper()
	account, err := s.AddAccount(context.Background(), &core.Account{
		Email:             email,
		Provider:          "gmail",
		IMAPHost:          "imap.gmail.com",
		IMAPPort:          993,
		Username:          email,
		EncryptedPassword: "enc:v1:sealed",
	})
	require.NoError(t, err)
	return account
}

func processed(accountID, messageID string, received time.Time) *core.ProcessedEmail {
	return &core.ProcessedEmail{
		AccountID:      accountID,
		MessageID:      messageID,
		Subject:        "Subject " + messageID,
		Sender:         "alice@example.com",
		Recipient:      "bob@example.com",
		ReceivedDate:   received,
		ContentPreview: "preview",
		Summary:        "summary",
		Sentiment:      core.SentimentPositive,
		Priority:       core.PriorityHigh,
	}
}

func TestAccountLifecycle(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	account := addAccount(t, s, "user@gmail.com")
	assert.NotEmpty(t, account.ID)
	assert.True(t, account.IsActive)
	assert.Nil(t, account.LastCheckTime)

	_, err := s.AddAccount(ctx, &core.Account{Email: "user@gmail.com", Provider: "gmail", IMAPHost: "h", Username: "u", EncryptedPassword: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDuplicate)

	active, err := s.GetActiveAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "user@gmail.com", active[0].Email)
	assert.Equal(t, "enc:v1:sealed", active[0].EncryptedPassword)

	require.NoError(t, s.AdvanceWatermark(ctx, account.ID, clock.now))
	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCheckTime)
	assert.True(t, clock.now.Equal(*got.LastCheckTime))

	require.NoError(t, s.DeactivateAccount(ctx, account.ID))
	active, err = s.GetActiveAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	got, err = s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	err = s.DeactivateAccount(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStoreProcessedIsIdempotent(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	account := addAccount(t, s, "user@gmail.com")

	seen, err := s.IsProcessed(ctx, account.ID, "<m1@example.com>")
	require.NoError(t, err)
	assert.False(t, seen)

	stored, err := s.StoreProcessed(ctx, processed(account.ID, "<m1@example.com>", clock.now))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, core.NotificationPending, stored.NotificationStatus)
	assert.False(t, stored.TelegramSent)

	seen, err = s.IsProcessed(ctx, account.ID, "<m1@example.com>")
	require.NoError(t, err)
	assert.True(t, seen)

	_, err = s.StoreProcessed(ctx, processed(account.ID, "<m1@example.com>", clock.now))
	require.Error(t, err)
	assert.Equal(t, core.KindDuplicate, core.KindOf(err))

	other := addAccount(t, s, "other@gmail.com")
	_, err = s.StoreProcessed(ctx, processed(other.ID, "<m1@example.com>", clock.now))
	assert.NoError(t, err)
}

func TestStoreProcessedKeepsLongAddressLists(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	account := addAccount(t, s, "user@gmail.com")

	var rcpts []string
	for i := 0; i < 40; i++ {
		rcpts = append(rcpts, "Team Member "+strings.Repeat("x", 4)+" <member"+string(rune('a'+i%26))+"@lists.example.com>")
	}
	email := processed(account.ID, "<list@example.com>", clock.now)
	email.Recipient = strings.Join(rcpts, ", ")
	email.Sender = strings.Repeat("s", 600) + "@example.com"
	require.Greater(t, len(email.Recipient), 1000)

	_, err := s.StoreProcessed(ctx, email)
	require.NoError(t, err)

	emails, err := s.RecentEmails(ctx, 10)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, email.Recipient, emails[0].Recipient)
	assert.Equal(t, email.Sender, emails[0].Sender)
}

func TestAddressColumnsAreUnbounded(t *testing.T) {
	for name, schema := range map[string][]string{
		"sqlite":   sqliteSchema,
		"mysql":    mysqlSchema,
		"postgres": postgresSchema,
	} {
		for _, stmt := range schema {
			if !strings.Contains(stmt, "processed_emails (") {
				continue
			}
			for _, line := range strings.Split(stmt, "\n") {
				field := strings.Fields(line)
				if len(field) < 2 || (field[0] != "sender" && field[0] != "recipient") {
					continue
				}
				assert.Equal(t, "TEXT", field[1], "%s %s", name, field[0])
			}
		}
	}
}

func TestMarkNotifiedTransitionsOnce(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	account := addAccount(t, s, "user@gmail.com")

	stored, err := s.StoreProcessed(ctx, processed(account.ID, "m1", clock.now))
	require.NoError(t, err)

	require.NoError(t, s.MarkNotified(ctx, stored.ID, true))
	require.NoError(t, s.MarkNotified(ctx, stored.ID, false))

	emails, err := s.RecentEmails(ctx, 10)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, core.NotificationSent, emails[0].NotificationStatus)
	assert.True(t, emails[0].TelegramSent)
	require.NotNil(t, emails[0].TelegramSentAt)

	failed, err := s.StoreProcessed(ctx, processed(account.ID, "m2", clock.now))
	require.NoError(t, err)
	require.NoError(t, s.MarkNotified(ctx, failed.ID, false))

	emails, err = s.RecentEmails(ctx, 10)
	require.NoError(t, err)
	statuses := map[string]core.NotificationStatus{}
	for _, e := range emails {
		statuses[e.MessageID] = e.NotificationStatus
	}
	assert.Equal(t, core.NotificationFailed, statuses["m2"])
}

func TestRecentEmailsAndStats(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	first := addAccount(t, s, "a@gmail.com")
	second := addAccount(t, s, "b@gmail.com")

	older, err := s.StoreProcessed(ctx, processed(first.ID, "old", clock.now.Add(-2*time.Hour)))
	require.NoError(t, err)
	_, err = s.StoreProcessed(ctx, processed(first.ID, "new", clock.now.Add(-time.Hour)))
	require.NoError(t, err)
	require.NoError(t, s.MarkNotified(ctx, older.ID, true))

	emails, err := s.RecentEmails(ctx, 20)
	require.NoError(t, err)
	require.Len(t, emails, 2)
	assert.Equal(t, "new", emails[0].MessageID)
	assert.Equal(t, "a@gmail.com", emails[0].AccountEmail)

	limited, err := s.RecentEmails(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	stats, err := s.EmailStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, first.ID, stats[0].AccountID)
	assert.Equal(t, 2, stats[0].TotalEmails)
	assert.Equal(t, 1, stats[0].NotifiedEmails)
	assert.NotEmpty(t, stats[0].LastReceived)
	assert.Equal(t, second.ID, stats[1].AccountID)
	assert.Equal(t, 0, stats[1].TotalEmails)
	assert.Empty(t, stats[1].LastReceived)
}

func TestCleanupOldEmails(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	account := addAccount(t, s, "user@gmail.com")

	_, err := s.StoreProcessed(ctx, processed(account.ID, "old", clock.now))
	require.NoError(t, err)

	clock.now = clock.now.Add(40 * 24 * time.Hour)
	_, err = s.StoreProcessed(ctx, processed(account.ID, "fresh", clock.now))
	require.NoError(t, err)

	deleted, err := s.CleanupOldEmails(ctx, clock.now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	emails, err := s.RecentEmails(ctx, 10)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "fresh", emails[0].MessageID)

	s.runRetention(ctx)
	logs, err := s.ListLogs(ctx, 10, core.SeverityInfo)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "cleanup_completed", logs[0].EventType)
}

func TestConfigsKeepOneActiveRow(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	ai, err := s.GetAIConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, ai)

	_, err = s.SetAIConfig(ctx, &core.AIConfig{Provider: "openai", Model: "gpt-3.5-turbo", APIKeyEncrypted: "sealed-1", MaxTokens: 150, Temperature: 0.3})
	require.NoError(t, err)

	clock.now = clock.now.Add(time.Minute)
	saved, err := s.SetAIConfig(ctx, &core.AIConfig{Provider: "anthropic", Model: "claude-3-haiku-20240307", APIKeyEncrypted: "sealed-2", APIKey: "plain", MaxTokens: 200, Temperature: 0, EnableSentimentAnalysis: true})
	require.NoError(t, err)
	assert.Empty(t, saved.APIKey)

	ai, err = s.GetAIConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, ai)
	assert.Equal(t, "anthropic", ai.Provider)
	assert.Equal(t, "sealed-2", ai.APIKeyEncrypted)
	assert.Equal(t, 0.0, ai.Temperature)
	assert.True(t, ai.EnableSentimentAnalysis)

	var activeRows int
	require.NoError(t, s.DB().Get(&activeRows, `SELECT COUNT(*) FROM ai_config WHERE is_active = 1`))
	assert.Equal(t, 1, activeRows)

	n, err := s.GetNotifierConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = s.SetNotifierConfig(ctx, &core.NotifierConfig{Channel: "telegram", BotToken: "123:abc", ChatID: "42"})
	require.NoError(t, err)
	clock.now = clock.now.Add(time.Minute)
	_, err = s.SetNotifierConfig(ctx, &core.NotifierConfig{Channel: "telegram", BotToken: "456:def", ChatID: "43"})
	require.NoError(t, err)

	n, err = s.GetNotifierConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "456:def", n.BotToken)
	assert.Equal(t, "43", n.ChatID)

	logs, err := s.ListLogs(ctx, 10, "")
	require.NoError(t, err)
	events := make([]string, 0, len(logs))
	for _, l := range logs {
		events = append(events, l.EventType)
	}
	assert.Contains(t, events, "ai_config_updated")
	assert.Contains(t, events, "telegram_config_updated")
}

func TestLogsMetadataAndSeverityFilter(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendLog(ctx, &core.SystemLog{
		EventType: "email_processing_completed",
		Message:   "done",
		Severity:  core.SeverityInfo,
		Metadata:  map[string]any{"processed": float64(3)},
	}))
	clock.now = clock.now.Add(time.Second)
	require.NoError(t, s.AppendLog(ctx, &core.SystemLog{
		EventType: "email_processing_error",
		Message:   "boom",
		Severity:  core.SeverityError,
		AccountID: "acc-1",
	}))

	all, err := s.ListLogs(ctx, 50, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "email_processing_error", all[0].EventType)
	assert.Equal(t, float64(3), all[1].Metadata["processed"])

	errs, err := s.ListLogs(ctx, 50, core.SeverityError)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "acc-1", errs[0].AccountID)
	assert.Nil(t, errs[0].Metadata)
}

func TestHealth(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	health := s.Health(ctx)
	assert.True(t, health.DatabaseConnected)
	assert.Zero(t, health.ActiveAccounts)
	assert.False(t, health.AIConfigured)
	assert.False(t, health.TelegramConfigured)

	account := addAccount(t, s, "user@gmail.com")
	_, err := s.StoreProcessed(ctx, processed(account.ID, "m1", clock.now))
	require.NoError(t, err)
	_, err = s.SetNotifierConfig(ctx, &core.NotifierConfig{Channel: "telegram", BotToken: "1:a", ChatID: "1"})
	require.NoError(t, err)

	health = s.Health(ctx)
	assert.True(t, health.DatabaseConnected)
	assert.Equal(t, 1, health.ActiveAccounts)
	assert.Equal(t, 1, health.EmailsLast24h)
	assert.True(t, health.TelegramConfigured)
	assert.Empty(t, health.Error)

	require.NoError(t, s.Close())
	health = s.Health(ctx)
	assert.False(t, health.DatabaseConnected)
	assert.NotEmpty(t, health.Error)
}

func TestDialectFor(t *testing.T) {
	for driver, want := range map[string]string{
		"sqlite":     DriverSQLite,
		"sqlite3":    DriverSQLite,
		"mysql":      DriverMySQL,
		"postgres":   DriverPostgres,
		"postgresql": DriverPostgres,
		"pgx":        DriverPostgres,
	} {
		d, err := dialectFor(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, want, d.name)
	}

	_, err := dialectFor("oracle")
	assert.Error(t, err)
}
