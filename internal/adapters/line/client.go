package line

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/notifier"
)

// maxTextRunes is the LINE text message limit
const maxTextRunes = 5000

// Client pushes plain-text notifications to a LINE user or group
type Client struct {
	bot    *messaging_api.MessagingApiAPI
	to     string
	logger *zap.Logger
}

// NewClient creates a LINE push client whose HTTP calls are bounded by timeout;
// extra options are passed to the SDK after the default HTTP client is set
func NewClient(channelToken, to string, timeout time.Duration, logger *zap.Logger, opts ...messaging_api.MessagingApiAPIOption) (*Client, error) {
	if channelToken == "" {
		return nil, fmt.Errorf("line channel token is empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts = append([]messaging_api.MessagingApiAPIOption{
		messaging_api.WithHTTPClient(&http.Client{Timeout: timeout}),
	}, opts...)
	bot, err := messaging_api.NewMessagingApiAPI(channelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging API: %w", err)
	}

	return &Client{
		bot:    bot,
		to:     to,
		logger: logger,
	}, nil
}

// Send pushes the plain-text rendering of msg
func (c *Client) Send(ctx context.Context, msg notifier.Message) *core.DeliveryResult {
	if c.to == "" {
		return &core.DeliveryResult{Success: false, Error: "user ID is empty"}
	}

	text := []rune(msg.Plain())
	if len(text) > maxTextRunes {
		text = append(text[:maxTextRunes-3], []rune("...")...)
	}

	resp, err := c.api(ctx).PushMessage(
		&messaging_api.PushMessageRequest{
			To: c.to,
			Messages: []messaging_api.MessageInterface{
				messaging_api.TextMessage{
					Text: string(text),
				},
			},
		},
		"",
	)
	if err != nil {
		return &core.DeliveryResult{Success: false, Error: fmt.Sprintf("failed to send text message: %v", err)}
	}

	result := &core.DeliveryResult{Success: true}
	if resp != nil && len(resp.SentMessages) > 0 {
		result.MessageID = resp.SentMessages[0].Id
	}
	return result
}

// Probe fetches the bot profile to verify the channel token
func (c *Client) Probe(ctx context.Context) *core.ConnectionTest {
	info, err := c.api(ctx).GetBotInfo()
	if err != nil {
		return &core.ConnectionTest{Success: false, Error: fmt.Sprintf("failed to get bot info: %v", err)}
	}
	return &core.ConnectionTest{Success: true, Response: info.DisplayName}
}

// api returns a per-call copy of the SDK client bound to ctx; WithContext
// mutates its receiver, so the shared client is never bound directly
func (c *Client) api(ctx context.Context) *messaging_api.MessagingApiAPI {
	bot := *c.bot
	return bot.WithContext(ctx)
}
