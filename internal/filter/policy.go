package filter

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/whitelist"
)

// DefaultMinContentLength is the trimmed body length below which a message is skipped
const DefaultMinContentLength = 20

var (
	automatedSenders = []string{
		"noreply", "no-reply", "donotreply", "automated",
		"mailer-daemon", "postmaster", "system",
		"notification", "alert",
	}
	newsletterKeywords = []string{
		"newsletter", "unsubscribe", "marketing",
		"promotional", "campaign", "offer",
	}
	outOfOfficeKeywords = []string{
		"out of office", "auto-reply", "automatic reply",
		"vacation", "away message",
	}
)

// Reason names the rule that rejected a message
type Reason string

const (
	ReasonAccepted    Reason = ""
	ReasonTooShort    Reason = "insufficient_content"
	ReasonAutomated   Reason = "automated_sender"
	ReasonNewsletter  Reason = "newsletter"
	ReasonOutOfOffice Reason = "out_of_office"
)

// Policy rejects messages not worth summarizing. Rules run in order and the first match wins.
type Policy struct {
	minContent int
	allowed    *whitelist.Checker
	logger     *zap.Logger
}

// NewPolicy creates a new filter policy
func NewPolicy(minContent int, allowed *whitelist.Checker, logger *zap.Logger) *Policy {
	if minContent <= 0 {
		minContent = DefaultMinContentLength
	}
	if allowed == nil {
		allowed = whitelist.NewChecker(nil, nil)
	}
	return &Policy{minContent: minContent, allowed: allowed, logger: logger}
}

// ShouldProcess reports whether msg passes every rule; internal faults default to accept
func (p *Policy) ShouldProcess(msg *core.NormalizedMessage) (accept bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Recovered in filter policy, processing anyway", zap.Any("panic", r))
			accept = true
		}
	}()

	reason := p.Evaluate(msg)
	if reason == ReasonAccepted {
		return true
	}

	p.logger.Info("Skipping email",
		zap.String("reason", string(reason)),
		zap.String("sender", msg.Sender),
		zap.String("subject", msg.Subject))
	return false
}

// Evaluate returns the rejecting rule, or ReasonAccepted
func (p *Policy) Evaluate(msg *core.NormalizedMessage) Reason {
	if len([]rune(strings.TrimSpace(msg.Content))) < p.minContent {
		return ReasonTooShort
	}

	if p.allowed.IsWhitelisted(msg.Sender) {
		return ReasonAccepted
	}

	sender := strings.ToLower(msg.Sender)
	if containsAny(sender, automatedSenders) {
		return ReasonAutomated
	}

	subject := strings.ToLower(msg.Subject)
	if containsAny(subject, newsletterKeywords) {
		return ReasonNewsletter
	}
	if containsAny(subject, outOfOfficeKeywords) {
		return ReasonOutOfOffice
	}

	return ReasonAccepted
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
