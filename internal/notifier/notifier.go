package notifier

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
)

// Recorder receives per-delivery outcomes
type Recorder interface {
	NotificationOutcome(channel, status string)
}

// Service renders templates and hands them to a channel sender
type Service struct {
	channel  string
	sender   Sender
	cfg      core.NotifierConfig
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a notifier for one configured channel; recorder may be nil
func NewService(sender Sender, cfg *core.NotifierConfig, recorder Recorder, logger *zap.Logger) *Service {
	return &Service{
		channel:  cfg.Channel,
		sender:   sender,
		cfg:      *cfg,
		recorder: recorder,
		logger:   logger.With(zap.String("channel", cfg.Channel)),
		now:      time.Now,
	}
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Channel returns the channel name
func (s *Service) Channel() string {
	return s.channel
}

// NotifyEmail sends the summary of one processed message
func (s *Service) NotifyEmail(ctx context.Context, msg *core.NormalizedMessage, summary *core.Summary) *core.DeliveryResult {
	result := s.deliver(ctx, Message{
		Subject:        "New Email Summary: " + msg.Subject,
		HTML:           FormatEmail(msg, summary, s.now()),
		DisablePreview: true,
	})
	if result.Success {
		s.logger.Info("Notification sent", zap.String("subject", msg.Subject))
	} else {
		s.logger.Warn("Notification failed", zap.String("subject", msg.Subject), zap.String("error", result.Error))
	}
	return result
}

// SendAlert sends a system alert
func (s *Service) SendAlert(ctx context.Context, alertType, message string, severity core.Severity) *core.DeliveryResult {
	return s.deliver(ctx, Message{
		Subject: "System Alert: " + alertType,
		HTML:    FormatAlert(alertType, message, severity, s.now()),
	})
}

// SendTest sends custom, or the default test message when custom is empty
func (s *Service) SendTest(ctx context.Context, custom string) *core.DeliveryResult {
	text := custom
	if text == "" {
		text = FormatTest(s.cfg.ChatID, s.cfg.BotToken != "", s.now())
	}
	return s.deliver(ctx, Message{Subject: "Test Message", HTML: text})
}

// Validate checks the stored configuration and probes the channel
func (s *Service) Validate(ctx context.Context) *core.ValidationReport {
	report := &core.ValidationReport{Errors: []string{}, Warnings: []string{}}

	verr := checkConfig(s.channel, s.cfg.BotToken, s.cfg.ChatID)
	report.Errors = append(report.Errors, verr.Errors...)
	report.Warnings = append(report.Warnings, verr.Warnings...)

	report.ConnectionTest = s.sender.Probe(ctx)
	report.Valid = len(report.Errors) == 0
	return report
}

func (s *Service) deliver(ctx context.Context, msg Message) *core.DeliveryResult {
	result := s.sender.Send(ctx, msg)
	if result == nil {
		result = &core.DeliveryResult{Success: false, Error: "no result from channel"}
	}
	if s.recorder != nil {
		status := "sent"
		if !result.Success {
			status = "failed"
		}
		s.recorder.NotificationOutcome(s.channel, status)
	}
	return result
}
