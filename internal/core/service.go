package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Event types written to the system log
const (
	EventProcessingStarted   = "email_processing_started"
	EventProcessingCompleted = "email_processing_completed"
	EventAccountError        = "account_processing_error"
	EventEmailError          = "email_processing_error"
	EventEmailProcessed      = "email_processed"
)

// RunRecorder receives pipeline counters; the metrics package implements it
type RunRecorder interface {
	EmailOutcome(status string)
	AccountOutcome(status string)
	RunDuration(d time.Duration)
}

// PipelineOptions tunes the orchestrator
type PipelineOptions struct {
	DefaultLookback       time.Duration
	WatermarkOverlap      time.Duration
	AlertOnAccountFailure bool
}

// PipelineService drives fetch, filter, summarize, notify and persist for every active account
type PipelineService struct {
	store       StateStore
	dialer      MailboxDialer
	normalizer  Normalizer
	policy      FilterPolicy
	summarizers SummarizerFactory
	notifiers   NotifierFactory
	vault       Vault
	seen        SeenCache
	recorder    RunRecorder
	logger      *zap.Logger
	opts        PipelineOptions
	now         func() time.Time
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	store StateStore,
	dialer MailboxDialer,
	normalizer Normalizer,
	policy FilterPolicy,
	summarizers SummarizerFactory,
	notifiers NotifierFactory,
	vault Vault,
	seen SeenCache,
	recorder RunRecorder,
	logger *zap.Logger,
	opts PipelineOptions,
) *PipelineService {
	if opts.DefaultLookback <= 0 {
		opts.DefaultLookback = 24 * time.Hour
	}
	if opts.WatermarkOverlap < 0 {
		opts.WatermarkOverlap = 0
	}
	return &PipelineService{
		store:       store,
		dialer:      dialer,
		normalizer:  normalizer,
		policy:      policy,
		summarizers: summarizers,
		notifiers:   notifiers,
		vault:       vault,
		seen:        seen,
		recorder:    recorder,
		logger:      logger,
		opts:        opts,
		now:         time.Now,
	}
}

// SetClock overrides the time source
func (s *PipelineService) SetClock(now func() time.Time) {
	s.now = now
}

// Run processes every active account sequentially and returns the aggregate report
func (s *PipelineService) Run(ctx context.Context, opts RunOptions) *RunReport {
	if opts.TriggerType == "" {
		opts.TriggerType = "manual"
	}

	report := &RunReport{
		TriggerType: opts.TriggerType,
		Errors:      []string{},
		Accounts:    []*AccountReport{},
		StartedAt:   s.now(),
	}

	s.appendLog(ctx, &SystemLog{
		EventType: EventProcessingStarted,
		Message:   fmt.Sprintf("Email processing started (%s trigger)", opts.TriggerType),
		Severity:  SeverityInfo,
		Metadata:  map[string]any{"trigger_type": opts.TriggerType},
	})

	accounts, err := s.store.GetActiveAccounts(ctx)
	if err != nil {
		s.logger.Error("Failed to load active accounts", zap.Error(err))
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to load accounts: %v", err))
		return s.finish(ctx, report)
	}

	if opts.AccountID != "" {
		accounts = filterAccounts(accounts, opts.AccountID)
	}

	if len(accounts) == 0 {
		report.Errors = append(report.Errors, "No active email accounts configured")
		return s.finish(ctx, report)
	}

	summarizer := s.buildSummarizer(ctx)
	notifier := s.buildNotifier(ctx)

	for _, account := range accounts {
		accountReport := s.processAccount(ctx, account, summarizer, notifier)
		report.Accounts = append(report.Accounts, accountReport)
		report.AccountsProcessed++
		report.TotalEmails += accountReport.Processed

		if accountReport.Error != "" {
			report.FailedAccounts++
			report.Errors = append(report.Errors,
				fmt.Sprintf("Failed to process account %s: %s", account.Email, accountReport.Error))
			s.recordAccount("failed")
			continue
		}
		report.SuccessfulAccounts++
		s.recordAccount("success")
	}

	return s.finish(ctx, report)
}

func (s *PipelineService) finish(ctx context.Context, report *RunReport) *RunReport {
	report.FinishedAt = s.now()

	s.appendLog(ctx, &SystemLog{
		EventType: EventProcessingCompleted,
		Message: fmt.Sprintf("Processed %d emails from %d accounts",
			report.TotalEmails, report.AccountsProcessed),
		Severity: completionSeverity(report),
		Metadata: map[string]any{
			"trigger_type":        report.TriggerType,
			"successful_accounts": report.SuccessfulAccounts,
			"failed_accounts":     report.FailedAccounts,
			"errors":              len(report.Errors),
		},
	})

	if s.recorder != nil {
		s.recorder.RunDuration(report.FinishedAt.Sub(report.StartedAt))
	}

	s.logger.Info("Email processing completed",
		zap.String("trigger", report.TriggerType),
		zap.Int("accounts", report.AccountsProcessed),
		zap.Int("failed_accounts", report.FailedAccounts),
		zap.Int("emails", report.TotalEmails))

	return report
}

func completionSeverity(report *RunReport) Severity {
	if report.FailedAccounts > 0 {
		return SeverityWarning
	}
	return SeverityInfo
}

func filterAccounts(accounts []*Account, id string) []*Account {
	for _, a := range accounts {
		if a.ID == id {
			return []*Account{a}
		}
	}
	return nil
}

// buildSummarizer resolves the active AI configuration; the API key is decrypted only for this run
func (s *PipelineService) buildSummarizer(ctx context.Context) Summarizer {
	cfg, err := s.store.GetAIConfig(ctx)
	if err != nil {
		s.logger.Warn("Failed to load AI configuration, using fallback summaries", zap.Error(err))
		cfg = nil
	}
	if cfg == nil {
		s.logger.Warn("No AI configuration found, using fallback summaries")
	} else {
		active := *cfg
		active.APIKey = s.vault.Decrypt(cfg.APIKeyEncrypted)
		cfg = &active
	}

	summarizer, err := s.summarizers.ForConfig(cfg)
	if err != nil {
		s.logger.Warn("Failed to build summarizer, using fallback summaries", zap.Error(err))
		summarizer, _ = s.summarizers.ForConfig(nil)
	}
	return summarizer
}

func (s *PipelineService) buildNotifier(ctx context.Context) Notifier {
	cfg, err := s.store.GetNotifierConfig(ctx)
	if err != nil {
		s.logger.Warn("Failed to load notifier configuration", zap.Error(err))
		return nil
	}
	if cfg == nil {
		s.logger.Warn("No notifier configuration found, notifications disabled")
		return nil
	}

	notifier, err := s.notifiers.ForConfig(cfg)
	if err != nil {
		s.logger.Warn("Failed to build notifier, notifications disabled",
			zap.String("channel", cfg.Channel), zap.Error(err))
		return nil
	}
	return notifier
}

func (s *PipelineService) processAccount(
	ctx context.Context,
	account *Account,
	summarizer Summarizer,
	notifier Notifier,
) *AccountReport {
	report := &AccountReport{AccountID: account.ID, Email: account.Email}
	startedAt := s.now()

	logger := s.logger.With(zap.String("account", account.Email))
	logger.Info("Processing account")

	err := s.drainMailbox(ctx, account, summarizer, notifier, report, logger)
	if err != nil {
		report.Error = err.Error()
		logger.Error("Failed to process account", zap.Error(err))

		s.appendLog(ctx, &SystemLog{
			EventType: EventAccountError,
			Message:   fmt.Sprintf("Failed to process account %s: %v", account.Email, err),
			Severity:  SeverityError,
			AccountID: account.ID,
			Metadata:  map[string]any{"error_kind": string(KindOf(err))},
		})

		if notifier != nil && s.opts.AlertOnAccountFailure {
			notifier.SendAlert(ctx, "Account processing failed",
				fmt.Sprintf("%s: %v", account.Email, err), SeverityError)
		}
		return report
	}

	if err := s.store.AdvanceWatermark(ctx, account.ID, startedAt); err != nil {
		logger.Warn("Failed to advance watermark", zap.Error(err))
	}

	return report
}

// drainMailbox owns the session for one account; Close runs on every exit path
func (s *PipelineService) drainMailbox(
	ctx context.Context,
	account *Account,
	summarizer Summarizer,
	notifier Notifier,
	report *AccountReport,
	logger *zap.Logger,
) error {
	password := s.vault.Decrypt(account.EncryptedPassword)

	session, err := s.dialer.Open(ctx, account, password)
	if err != nil {
		return E(KindConnection, "open mailbox", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Debug("Error closing mailbox session", zap.Error(cerr))
		}
	}()

	since := s.windowStart(account)
	messages, err := session.ListUnseen(ctx, since)
	if err != nil {
		return E(KindConnection, "list unseen", err)
	}
	report.Fetched = len(messages)
	logger.Debug("Fetched unseen messages", zap.Int("count", len(messages)), zap.Time("since", since))

	for _, raw := range messages {
		s.processMessage(ctx, account, session, raw, summarizer, notifier, report, logger)
	}

	return nil
}

func (s *PipelineService) windowStart(account *Account) time.Time {
	if account.LastCheckTime != nil && !account.LastCheckTime.IsZero() {
		return account.LastCheckTime.Add(-s.opts.WatermarkOverlap)
	}
	return s.now().Add(-s.opts.DefaultLookback)
}

func (s *PipelineService) processMessage(
	ctx context.Context,
	account *Account,
	session MailboxSession,
	raw RawMessage,
	summarizer Summarizer,
	notifier Notifier,
	report *AccountReport,
	logger *zap.Logger,
) {
	msg := s.normalizer.Extract(raw)
	msg.AccountID = account.ID
	msg.AccountEmail = account.Email

	if s.alreadyProcessed(ctx, msg, logger) {
		report.Duplicates++
		s.recordEmail("duplicate")
		return
	}

	if !s.policy.ShouldProcess(msg) {
		report.Skipped++
		s.recordEmail("skipped")
		return
	}

	summary := summarizer.Summarize(ctx, msg.Content, msg.Subject, msg.Sender)

	stored, err := s.store.StoreProcessed(ctx, toProcessedEmail(msg, summary))
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			logger.Debug("Message stored concurrently, skipping", zap.String("message_id", msg.MessageID))
			report.Duplicates++
			s.recordEmail("duplicate")
			return
		}
		logger.Warn("Failed to store processed email",
			zap.String("message_id", msg.MessageID), zap.Error(err))
		report.Failed++
		s.recordEmail("failed")
		s.appendLog(ctx, &SystemLog{
			EventType: EventEmailError,
			Message:   fmt.Sprintf("Failed to store email %s: %v", msg.MessageID, err),
			Severity:  SeverityWarning,
			AccountID: account.ID,
		})
		return
	}

	if s.seen != nil {
		s.seen.Remember(ctx, account.ID, msg.MessageID)
	}

	sent := false
	if notifier != nil {
		result := notifier.NotifyEmail(ctx, msg, summary)
		sent = result.Success
		if !sent {
			logger.Warn("Notification failed",
				zap.String("channel", notifier.Channel()),
				zap.String("error", result.Error))
		}
		if err := s.store.MarkNotified(ctx, stored.ID, sent); err != nil {
			logger.Warn("Failed to record notification state", zap.Error(err))
		}
	}

	if err := session.MarkRead(ctx, raw.UID); err != nil {
		logger.Warn("Failed to mark message read", zap.Uint32("uid", raw.UID), zap.Error(err))
	}

	report.Processed++
	s.recordEmail("processed")

	s.appendLog(ctx, &SystemLog{
		EventType: EventEmailProcessed,
		Message:   "Processed email: " + shorten(msg.Subject, 50),
		Severity:  SeverityInfo,
		AccountID: account.ID,
		Metadata: map[string]any{
			"sender":        msg.Sender,
			"has_summary":   summary.Text != "",
			"telegram_sent": sent,
		},
	})
}

// alreadyProcessed consults the seen cache first; a store error counts as not processed
func (s *PipelineService) alreadyProcessed(ctx context.Context, msg *NormalizedMessage, logger *zap.Logger) bool {
	if s.seen != nil && s.seen.Seen(ctx, msg.AccountID, msg.MessageID) {
		return true
	}
	processed, err := s.store.IsProcessed(ctx, msg.AccountID, msg.MessageID)
	if err != nil {
		logger.Warn("Failed to check processed state", zap.String("message_id", msg.MessageID), zap.Error(err))
		return false
	}
	if processed && s.seen != nil {
		s.seen.Remember(ctx, msg.AccountID, msg.MessageID)
	}
	return processed
}

func toProcessedEmail(msg *NormalizedMessage, summary *Summary) *ProcessedEmail {
	sentiment := summary.Sentiment
	if sentiment == "" {
		sentiment = SentimentNeutral
	}
	return &ProcessedEmail{
		AccountID:          msg.AccountID,
		MessageID:          msg.MessageID,
		Subject:            msg.Subject,
		Sender:             msg.Sender,
		Recipient:          msg.Recipient,
		ReceivedDate:       msg.ReceivedAt,
		ContentPreview:     msg.ContentPreview,
		Summary:            summary.Text,
		Sentiment:          sentiment,
		Priority:           msg.Priority,
		HasAttachments:     msg.HasAttachments,
		NotificationStatus: NotificationPending,
	}
}

func (s *PipelineService) appendLog(ctx context.Context, entry *SystemLog) {
	if err := s.store.AppendLog(ctx, entry); err != nil {
		s.logger.Debug("Failed to append system log",
			zap.String("event_type", entry.EventType), zap.Error(err))
	}
}

func (s *PipelineService) recordEmail(status string) {
	if s.recorder != nil {
		s.recorder.EmailOutcome(status)
	}
}

func (s *PipelineService) recordAccount(status string) {
	if s.recorder != nil {
		s.recorder.AccountOutcome(status)
	}
}

func shorten(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return strings.TrimSpace(string([]rune(text)[:limit])) + "..."
}
