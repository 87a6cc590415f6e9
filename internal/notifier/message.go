package notifier

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/mikey/llm-mail-digest/internal/core"
)

// Message is one rendered notification
type Message struct {
	Subject        string
	HTML           string
	DisablePreview bool
}

// Plain returns the message with tags stripped and entities decoded
func (m Message) Plain() string {
	return PlainText(m.HTML)
}

// Sender delivers rendered messages over one channel
type Sender interface {
	Send(ctx context.Context, msg Message) *core.DeliveryResult
	// Probe checks the channel credentials without sending a message
	Probe(ctx context.Context) *core.ConnectionTest
}

// PlainText converts the limited HTML used in templates to plain text
func PlainText(markup string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.SelfClosingTagToken, html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		}
	}
}
