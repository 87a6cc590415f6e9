package notifier

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"

	"github.com/mikey/llm-mail-digest/internal/core"
)

// Supported channels
const (
	ChannelTelegram = "telegram"
	ChannelLine     = "line"
	ChannelSMTP     = "smtp"
)

var botTokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Channels returns the supported channel names
func Channels() []string {
	return []string{ChannelLine, ChannelSMTP, ChannelTelegram}
}

// ValidateNotifierConfig checks an input payload. Warnings are returned even when the input is valid.
func ValidateNotifierConfig(input *core.NotifierConfigInput) (*core.NotifierConfig, []string, error) {
	channel := strings.ToLower(strings.TrimSpace(input.Channel))
	if channel == "" {
		channel = ChannelTelegram
	}

	verr := checkConfig(channel, input.BotToken, input.ChatID)
	if err := verr.OrNil(); err != nil {
		return nil, verr.Warnings, err
	}

	return &core.NotifierConfig{
		Channel:  channel,
		BotToken: input.BotToken,
		ChatID:   strings.TrimSpace(input.ChatID),
		Username: input.Username,
		IsActive: true,
	}, verr.Warnings, nil
}

func checkConfig(channel, token, chatID string) *core.ValidationError {
	verr := &core.ValidationError{}

	switch channel {
	case ChannelTelegram:
		if token == "" {
			verr.Add("Bot token is required")
		} else if !botTokenPattern.MatchString(token) {
			verr.Add("Invalid bot token format")
		}
		if chatID == "" {
			verr.Add("Chat ID is required")
		} else if _, err := strconv.ParseInt(chatID, 10, 64); err != nil {
			verr.Warn("Chat ID format may be invalid")
		}

	case ChannelLine:
		if chatID == "" {
			verr.Add("Chat ID is required")
		}
		if token == "" {
			verr.Warn("No channel access token set, using server default")
		}

	case ChannelSMTP:
		if chatID == "" {
			verr.Add("Chat ID is required")
		} else if _, err := mail.ParseAddress(chatID); err != nil {
			verr.Add("Chat ID must be an email address for smtp")
		}

	default:
		verr.Add("Unsupported channel: %s", channel)
	}

	return verr
}
