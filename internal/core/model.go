package core

import (
	"time"
)

// Priority is the coarse urgency tag derived from headers and subject
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Sentiment is the coarse tone classification attached to a summary
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Severity tags a system log entry or alert
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// NotificationStatus tracks the one-way delivery state of a processed email
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
)

// Account is a polled IMAP mailbox
type Account struct {
	ID                string     `db:"id" json:"id"`
	Email             string     `db:"email" json:"email"`
	Provider          string     `db:"provider" json:"provider"`
	IMAPHost          string     `db:"imap_host" json:"imap_host"`
	IMAPPort          int        `db:"imap_port" json:"imap_port"`
	Username          string     `db:"username" json:"username"`
	EncryptedPassword string     `db:"encrypted_password" json:"-"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	LastCheckTime     *time.Time `db:"last_check_time" json:"last_check_time,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// AccountInput is the unvalidated payload used to register an account
type AccountInput struct {
	Email    string `json:"email"`
	Provider string `json:"provider"`
	IMAPHost string `json:"imap_host"`
	IMAPPort int    `json:"imap_port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RawMessage is a fetched RFC 822 message with its mailbox reference
type RawMessage struct {
	UID uint32
	Raw []byte
}

// NormalizedMessage is the cleaned, decoded view of a fetched message
type NormalizedMessage struct {
	UID            uint32    `json:"-"`
	AccountID      string    `json:"account_id"`
	AccountEmail   string    `json:"account_email"`
	MessageID      string    `json:"message_id"`
	Subject        string    `json:"subject"`
	Sender         string    `json:"sender"`
	Recipient      string    `json:"recipient"`
	ReceivedAt     time.Time `json:"received_date"`
	Content        string    `json:"content"`
	ContentPreview string    `json:"content_preview"`
	HasAttachments bool      `json:"has_attachments"`
	Priority       Priority  `json:"priority"`
}

// Summary is the summarizer output for one message
type Summary struct {
	Text      string    `json:"summary"`
	Sentiment Sentiment `json:"sentiment"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// ProcessedEmail is the persisted record of a handled message
type ProcessedEmail struct {
	ID                 string             `db:"id" json:"id"`
	AccountID          string             `db:"account_id" json:"account_id"`
	MessageID          string             `db:"message_id" json:"message_id"`
	Subject            string             `db:"subject" json:"subject"`
	Sender             string             `db:"sender" json:"sender"`
	Recipient          string             `db:"recipient" json:"recipient"`
	ReceivedDate       time.Time          `db:"received_date" json:"received_date"`
	ContentPreview     string             `db:"content_preview" json:"content_preview"`
	Summary            string             `db:"summary" json:"summary"`
	Sentiment          Sentiment          `db:"sentiment" json:"sentiment"`
	Priority           Priority           `db:"priority" json:"priority"`
	HasAttachments     bool               `db:"has_attachments" json:"has_attachments"`
	TelegramSent       bool               `db:"telegram_sent" json:"telegram_sent"`
	TelegramSentAt     *time.Time         `db:"telegram_sent_at" json:"telegram_sent_at,omitempty"`
	NotificationStatus NotificationStatus `db:"notification_status" json:"notification_status"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	AccountEmail       string             `db:"account_email" json:"account_email,omitempty"`
}

// AIConfig is the stored summarizer configuration
type AIConfig struct {
	ID                      string    `db:"id" json:"id"`
	Provider                string    `db:"provider" json:"provider"`
	Model                   string    `db:"model" json:"model"`
	APIKeyEncrypted         string    `db:"api_key_encrypted" json:"-"`
	APIKey                  string    `db:"-" json:"-"`
	MaxTokens               int       `db:"max_tokens" json:"max_tokens"`
	Temperature             float64   `db:"temperature" json:"temperature"`
	CustomPrompt            string    `db:"custom_prompt" json:"custom_prompt,omitempty"`
	EnableSentimentAnalysis bool      `db:"enable_sentiment_analysis" json:"enable_sentiment_analysis"`
	IsActive                bool      `db:"is_active" json:"is_active"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
}

// AIConfigInput is the unvalidated payload used to set the AI configuration
type AIConfigInput struct {
	Provider                string   `json:"provider"`
	Model                   string   `json:"model"`
	APIKey                  string   `json:"api_key"`
	MaxTokens               int      `json:"max_tokens"`
	Temperature             *float64 `json:"temperature"`
	CustomPrompt            string   `json:"custom_prompt"`
	EnableSentimentAnalysis bool     `json:"enable_sentiment_analysis"`
}

// NotifierConfig is the stored chat channel configuration
type NotifierConfig struct {
	ID        string    `db:"id" json:"id"`
	Channel   string    `db:"channel" json:"channel"`
	BotToken  string    `db:"bot_token" json:"-"`
	ChatID    string    `db:"chat_id" json:"chat_id"`
	Username  string    `db:"username" json:"username,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NotifierConfigInput is the unvalidated payload used to set the notifier configuration
type NotifierConfigInput struct {
	Channel  string `json:"channel"`
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
	Username string `json:"username"`
}

// SystemLog is an append-only event record
type SystemLog struct {
	ID           string         `db:"id" json:"id"`
	EventType    string         `db:"event_type" json:"event_type"`
	Message      string         `db:"message" json:"message"`
	Severity     Severity       `db:"severity" json:"severity"`
	AccountID    string         `db:"account_id" json:"account_id,omitempty"`
	MetadataJSON string         `db:"metadata" json:"-"`
	Metadata     map[string]any `db:"-" json:"metadata,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// RunOptions selects what a pipeline run processes
type RunOptions struct {
	TriggerType string `json:"trigger_type"`
	AccountID   string `json:"account_id"`
}

// AccountReport is the per-account section of a run report
type AccountReport struct {
	AccountID  string `json:"account_id"`
	Email      string `json:"email"`
	Fetched    int    `json:"fetched"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	Duplicates int    `json:"duplicates"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// RunReport aggregates the outcome of one pipeline run
type RunReport struct {
	TriggerType        string           `json:"trigger_type"`
	AccountsProcessed  int              `json:"accounts_processed"`
	SuccessfulAccounts int              `json:"successful_accounts"`
	FailedAccounts     int              `json:"failed_accounts"`
	TotalEmails        int              `json:"total_emails"`
	Errors             []string         `json:"errors"`
	Accounts           []*AccountReport `json:"accounts"`
	StartedAt          time.Time        `json:"started_at"`
	FinishedAt         time.Time        `json:"finished_at"`
}

// DeliveryResult is the outcome of a single notifier call
type DeliveryResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CompletionRequest is a provider-independent model call
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Completion is a provider-independent model reply
type Completion struct {
	Text  string
	Model string
	ID    string
}

// ConnectionTest reports a live round trip made during validation
type ConnectionTest struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ValidationReport is returned by live configuration checks
type ValidationReport struct {
	Valid          bool            `json:"valid"`
	Errors         []string        `json:"errors"`
	Warnings       []string        `json:"warnings"`
	ConnectionTest *ConnectionTest `json:"connection_test,omitempty"`
}

// SystemHealth is the store-level health snapshot
type SystemHealth struct {
	ActiveAccounts     int       `json:"active_accounts"`
	EmailsLast24h      int       `json:"emails_last_24h"`
	TelegramConfigured bool      `json:"telegram_configured"`
	AIConfigured       bool      `json:"ai_configured"`
	DatabaseConnected  bool      `json:"database_connected"`
	CheckTimestamp     time.Time `json:"check_timestamp"`
	Error              string    `json:"error,omitempty"`
}

// EmailStats aggregates processed emails per account
type EmailStats struct {
	AccountID      string `db:"account_id" json:"account_id"`
	Email          string `db:"email" json:"email"`
	TotalEmails    int    `db:"total_emails" json:"total_emails"`
	NotifiedEmails int    `db:"notified_emails" json:"notified_emails"`
	LastReceived   string `db:"-" json:"last_received,omitempty"`
}
