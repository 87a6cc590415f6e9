package notifier

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mikey/llm-mail-digest/internal/core"
)

const (
	maxFieldChars = 500
	timeLayout    = "2006-01-02 15:04"
	clockLayout   = "2006-01-02 15:04:05"
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

var titleCaser = cases.Title(language.English)

// EscapeHTML escapes &, < and > and caps the result at 500 characters
func EscapeHTML(text string) string {
	if text == "" {
		return ""
	}
	text = htmlEscaper.Replace(text)
	if utf8.RuneCountInString(text) > maxFieldChars {
		text = string([]rune(text)[:maxFieldChars-3]) + "..."
	}
	return text
}

// EmailEmoji picks the headline emoji; priority wins over sentiment
func EmailEmoji(priority core.Priority, sentiment core.Sentiment) string {
	switch {
	case priority == core.PriorityHigh:
		return "🔥"
	case sentiment == core.SentimentPositive:
		return "😊"
	case sentiment == core.SentimentNegative:
		return "😟"
	default:
		return "📧"
	}
}

// FormatEmail renders the summary notification for one message
func FormatEmail(msg *core.NormalizedMessage, summary *core.Summary, now time.Time) string {
	received := msg.ReceivedAt
	if received.IsZero() {
		received = now
	}

	sentiment := summary.Sentiment
	if sentiment == "" {
		sentiment = core.SentimentNeutral
	}

	text := summary.Text
	if text == "" {
		text = "No summary available"
	}

	lines := []string{
		EmailEmoji(msg.Priority, sentiment) + " <b>New Email Summary</b>",
		"",
		"📮 <b>Account:</b> " + EscapeHTML(msg.AccountEmail),
		"👤 <b>From:</b> " + EscapeHTML(msg.Sender),
		"📋 <b>Subject:</b> " + EscapeHTML(msg.Subject),
		"⏰ <b>Received:</b> " + received.Format(timeLayout),
	}

	if msg.Priority == core.PriorityHigh {
		lines = append(lines, "🔥 <b>Priority:</b> HIGH")
	}

	if sentiment != core.SentimentNeutral {
		emoji := "😟"
		if sentiment == core.SentimentPositive {
			emoji = "😊"
		}
		lines = append(lines, emoji+" <b>Sentiment:</b> "+titleCaser.String(string(sentiment)))
	}

	if msg.HasAttachments {
		lines = append(lines, "📎 <b>Has Attachments</b>")
	}

	lines = append(lines, "", "📝 <b>Summary:</b>", EscapeHTML(text))

	if summary.Provider != "" {
		info := "AI: " + summary.Provider
		if summary.Model != "" {
			info += " (" + summary.Model + ")"
		}
		lines = append(lines, "", "<i>"+info+"</i>")
	}

	lines = append(lines, "", "---", "Generated by Email AI Agent")

	return strings.Join(lines, "\n")
}

var alertEmoji = map[core.Severity]string{
	core.SeverityError:   "🚨",
	core.SeverityWarning: "⚠️",
	core.SeverityInfo:    "ℹ️",
	core.SeveritySuccess: "✅",
}

// FormatAlert renders a system alert
func FormatAlert(alertType, message string, severity core.Severity, at time.Time) string {
	if severity == "" {
		severity = core.SeverityInfo
	}
	emoji, ok := alertEmoji[severity]
	if !ok {
		emoji = alertEmoji[core.SeverityInfo]
	}

	return fmt.Sprintf(`%s <b>System Alert</b>

<b>Type:</b> %s
<b>Severity:</b> %s
<b>Time:</b> %s

<b>Message:</b>
%s

---
Email AI Agent System`, emoji, EscapeHTML(alertType), strings.ToUpper(string(severity)), at.Format(clockLayout), EscapeHTML(message))
}

// FormatTest renders the default test message
func FormatTest(chatID string, hasToken bool, at time.Time) string {
	token := "✗ Missing"
	if hasToken {
		token = "✓ Valid"
	}

	return fmt.Sprintf(`🧪 <b>Test Message</b>

✅ Notification channel is working correctly!

<b>Bot Token:</b> %s
<b>Chat ID:</b> %s
<b>Time:</b> %s

This is a test message from your Email AI Agent.

---
Email AI Agent Setup`, token, chatID, at.Format(clockLayout))
}
