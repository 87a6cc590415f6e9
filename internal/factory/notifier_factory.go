package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/adapters/line"
	"github.com/mikey/llm-mail-digest/internal/adapters/mailer"
	"github.com/mikey/llm-mail-digest/internal/adapters/telegram"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/notifier"
)

// NotifierFactory creates notifiers for the stored channel configuration
type NotifierFactory struct {
	settings config.NotifierConfig
	telegram config.TelegramConfig
	line     config.LineConfig
	smtp     config.SMTPConfig
	recorder notifier.Recorder
	logger   *zap.Logger
}

// NewNotifierFactory creates a new notifier factory; recorder may be nil
func NewNotifierFactory(cfg *config.Config, recorder notifier.Recorder, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		settings: cfg.GetNotifier(),
		telegram: cfg.GetTelegram(),
		line:     cfg.GetLine(),
		smtp:     cfg.GetSMTP(),
		recorder: recorder,
		logger:   logger,
	}
}

// ForConfig creates a notifier based on the stored channel
func (f *NotifierFactory) ForConfig(cfg *core.NotifierConfig) (core.Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no notifier configuration")
	}

	active := *cfg
	if active.Channel == "" {
		active.Channel = notifier.ChannelTelegram
	}

	sender, err := f.createSender(&active)
	if err != nil {
		return nil, err
	}

	return notifier.NewService(sender, &active, f.recorder, f.logger), nil
}

func (f *NotifierFactory) createSender(cfg *core.NotifierConfig) (notifier.Sender, error) {
	switch cfg.Channel {
	case notifier.ChannelTelegram:
		return telegram.NewClient(f.telegram.BaseURL, cfg.BotToken, cfg.ChatID,
			f.settings.Timeout, f.settings.ValidateTimeout, f.logger), nil
	case notifier.ChannelLine:
		token := cfg.BotToken
		if token == "" {
			token = f.line.ChannelToken
		}
		return line.NewClient(token, cfg.ChatID, f.settings.Timeout, f.logger)
	case notifier.ChannelSMTP:
		return mailer.NewClient(f.smtp, cfg.ChatID, f.settings.Timeout, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported notifier channel: %s", cfg.Channel)
	}
}
