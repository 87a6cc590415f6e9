package normalizer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/utils"
)

const (
	NoSubject        = "(No Subject)"
	SubjectError     = "(Error extracting subject)"
	SenderError      = "(Error extracting sender)"
	MaxBodyChars     = 5000
	PreviewChars     = 500
	bodyTruncation   = "..."
	maxPartsPerWalk  = 256
)

var (
	priorityHeaders = []string{"X-Priority", "Priority", "Importance", "X-MS-Mail-Priority"}
	urgentKeywords  = []string{"urgent", "asap", "important", "critical", "emergency"}
)

// Normalizer decodes raw RFC 822 messages with go-message
type Normalizer struct {
	text   *utils.TextProcessor
	logger *zap.Logger
	now    func() time.Time
}

// New creates a new Normalizer
func New(text *utils.TextProcessor, logger *zap.Logger) *Normalizer {
	return &Normalizer{text: text, logger: logger, now: time.Now}
}

// Extract never fails; undecodable input yields placeholder fields
func (n *Normalizer) Extract(raw core.RawMessage) (msg *core.NormalizedMessage) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Recovered while extracting message", zap.Uint32("uid", raw.UID), zap.Any("panic", r))
			msg = n.placeholder(raw)
		}
	}()

	entity, err := message.Read(bytes.NewReader(raw.Raw))
	if err != nil && !message.IsUnknownCharset(err) {
		n.logger.Warn("Failed to parse message header", zap.Uint32("uid", raw.UID), zap.Error(err))
		return n.placeholder(raw)
	}

	header := mail.Header{Header: entity.Header}

	msg = &core.NormalizedMessage{
		UID:       raw.UID,
		MessageID: n.messageID(header, raw),
		Subject:   n.decodeText(header, "Subject"),
		Sender:    n.formatAddresses(header, "From"),
		Recipient: n.formatAddresses(header, "To"),
		Priority:  core.PriorityNormal,
	}

	if msg.Subject == "" {
		msg.Subject = NoSubject
	}

	msg.ReceivedAt, err = header.Date()
	if err != nil || msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = n.now()
	}

	body, hasAttachments := n.extractBody(entity, raw.UID)
	content := n.text.Truncate(cleanBody(n.text.SanitizeUTF8(body)), MaxBodyChars, bodyTruncation)

	msg.Content = content
	msg.ContentPreview = n.text.Prefix(content, PreviewChars)
	msg.HasAttachments = hasAttachments
	msg.Priority = extractPriority(header, msg.Subject)

	return msg
}

func (n *Normalizer) placeholder(raw core.RawMessage) *core.NormalizedMessage {
	return &core.NormalizedMessage{
		UID:        raw.UID,
		MessageID:  syntheticID(raw),
		Subject:    SubjectError,
		Sender:     SenderError,
		ReceivedAt: n.now(),
		Priority:   core.PriorityNormal,
	}
}

func (n *Normalizer) messageID(header mail.Header, raw core.RawMessage) string {
	if id := strings.TrimSpace(header.Get("Message-Id")); id != "" {
		return id
	}
	return syntheticID(raw)
}

// syntheticID keys messages without a Message-ID header by UID and content digest
func syntheticID(raw core.RawMessage) string {
	sum := sha256.Sum256(raw.Raw)
	return fmt.Sprintf("<%d.%s@local>", raw.UID, hex.EncodeToString(sum[:6]))
}

// decodeText decodes an RFC 2047 header, falling back to the raw bytes for unknown charsets
func (n *Normalizer) decodeText(header mail.Header, key string) string {
	text, err := header.Text(key)
	if err != nil {
		n.logger.Debug("Failed to decode header, using raw value", zap.String("header", key), zap.Error(err))
		return strings.TrimSpace(n.text.SanitizeUTF8(header.Get(key)))
	}
	return strings.TrimSpace(text)
}

func (n *Normalizer) formatAddresses(header mail.Header, key string) string {
	addrs, err := header.AddressList(key)
	if err != nil || len(addrs) == 0 {
		return n.decodeText(header, key)
	}

	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a.Name != "" {
			parts = append(parts, fmt.Sprintf("%s <%s>", a.Name, a.Address))
		} else {
			parts = append(parts, a.Address)
		}
	}
	return strings.Join(parts, ", ")
}

// extractBody walks the MIME tree depth first, preferring the first text/plain part
// and falling back to the first text/html part.
func (n *Normalizer) extractBody(entity *message.Entity, uid uint32) (string, bool) {
	mr := mail.NewReader(entity)
	defer mr.Close()

	var plain, htmlBody string
	var hasPlain, hasHTML, hasAttachments bool

	for i := 0; i < maxPartsPerWalk; i++ {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				n.logger.Debug("Unknown charset in part, skipping", zap.Uint32("uid", uid), zap.Error(err))
				continue
			}
			n.logger.Debug("Stopped reading MIME parts", zap.Uint32("uid", uid), zap.Error(err))
			break
		}

		switch h := part.Header.(type) {
		case *mail.AttachmentHeader:
			hasAttachments = true

		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if contentType == "" {
				contentType = "text/plain"
			}

			switch {
			case contentType == "text/plain" && !hasPlain:
				b, err := io.ReadAll(part.Body)
				if (err != nil && len(b) == 0) || strings.TrimSpace(string(b)) == "" {
					continue
				}
				plain, hasPlain = string(b), true

			case contentType == "text/html" && !hasHTML:
				b, err := io.ReadAll(part.Body)
				if err != nil && len(b) == 0 {
					continue
				}
				htmlBody, hasHTML = string(b), true
			}
		}
	}

	if hasPlain {
		return plain, hasAttachments
	}
	if hasHTML {
		return htmlToText(htmlBody), hasAttachments
	}
	return "", hasAttachments
}

func extractPriority(header mail.Header, subject string) core.Priority {
	for _, key := range priorityHeaders {
		value := strings.ToLower(header.Get(key))
		if value == "" {
			continue
		}
		switch {
		case strings.Contains(value, "1"), strings.Contains(value, "high"), strings.Contains(value, "urgent"):
			return core.PriorityHigh
		case strings.Contains(value, "5"), strings.Contains(value, "low"):
			return core.PriorityLow
		}
	}

	lower := strings.ToLower(subject)
	for _, keyword := range urgentKeywords {
		if strings.Contains(lower, keyword) {
			return core.PriorityHigh
		}
	}

	return core.PriorityNormal
}
