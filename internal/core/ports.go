package core

import (
	"context"
	"time"
)

// MailboxDialer opens authenticated mailbox sessions
type MailboxDialer interface {
	// Open connects, authenticates and selects the inbox
	Open(ctx context.Context, account *Account, password string) (MailboxSession, error)
}

// MailboxSession is a single open IMAP session scoped to one account
type MailboxSession interface {
	// ListUnseen returns every unseen message received since the given time
	ListUnseen(ctx context.Context, since time.Time) ([]RawMessage, error)

	// MarkRead flags a message as seen
	MarkRead(ctx context.Context, uid uint32) error

	// Close logs out and releases the connection; safe to call more than once
	Close() error
}

// Normalizer turns raw MIME into a NormalizedMessage and never fails
type Normalizer interface {
	Extract(raw RawMessage) *NormalizedMessage
}

// FilterPolicy decides whether a message is worth summarizing
type FilterPolicy interface {
	ShouldProcess(msg *NormalizedMessage) bool
}

// LLMClient is the uniform capability every AI provider implements
type LLMClient interface {
	Generate(ctx context.Context, req *CompletionRequest) (*Completion, error)
	Provider() string
	Model() string
}

// Summarizer produces a summary for a message, falling back when the provider fails
type Summarizer interface {
	Summarize(ctx context.Context, content, subject, sender string) *Summary
	Validate(ctx context.Context) *ValidationReport
}

// SummarizerFactory builds a summarizer for the active AI configuration; nil yields fallback only
type SummarizerFactory interface {
	ForConfig(cfg *AIConfig) (Summarizer, error)
}

// Notifier formats and delivers messages to a chat channel
type Notifier interface {
	NotifyEmail(ctx context.Context, msg *NormalizedMessage, summary *Summary) *DeliveryResult
	SendAlert(ctx context.Context, alertType, message string, severity Severity) *DeliveryResult
	SendTest(ctx context.Context, custom string) *DeliveryResult
	Validate(ctx context.Context) *ValidationReport
	Channel() string
}

// NotifierFactory builds a notifier for the active channel configuration
type NotifierFactory interface {
	ForConfig(cfg *NotifierConfig) (Notifier, error)
}

// StateStore persists accounts, configuration, processed emails and logs
type StateStore interface {
	GetActiveAccounts(ctx context.Context) ([]*Account, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
	AddAccount(ctx context.Context, account *Account) (*Account, error)
	DeactivateAccount(ctx context.Context, id string) error
	AdvanceWatermark(ctx context.Context, accountID string, at time.Time) error

	IsProcessed(ctx context.Context, accountID, messageID string) (bool, error)
	StoreProcessed(ctx context.Context, email *ProcessedEmail) (*ProcessedEmail, error)
	MarkNotified(ctx context.Context, id string, success bool) error
	RecentEmails(ctx context.Context, limit int) ([]*ProcessedEmail, error)
	EmailStats(ctx context.Context) ([]*EmailStats, error)
	CleanupOldEmails(ctx context.Context, before time.Time) (int64, error)

	GetAIConfig(ctx context.Context) (*AIConfig, error)
	SetAIConfig(ctx context.Context, cfg *AIConfig) (*AIConfig, error)
	GetNotifierConfig(ctx context.Context) (*NotifierConfig, error)
	SetNotifierConfig(ctx context.Context, cfg *NotifierConfig) (*NotifierConfig, error)

	AppendLog(ctx context.Context, entry *SystemLog) error
	ListLogs(ctx context.Context, limit int, severity Severity) ([]*SystemLog, error)
	Health(ctx context.Context) *SystemHealth

	Close() error
}

// SeenCache is a best-effort fast path in front of StateStore.IsProcessed
type SeenCache interface {
	Seen(ctx context.Context, accountID, messageID string) bool
	Remember(ctx context.Context, accountID, messageID string)
}

// Vault encrypts secrets at rest
type Vault interface {
	Encrypt(plain string) (string, error)
	// Decrypt returns a best-effort plaintext and never fails
	Decrypt(stored string) string
}
