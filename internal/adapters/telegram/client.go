package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/notifier"
)

// DefaultBaseURL is the public Bot API endpoint
const DefaultBaseURL = "https://api.telegram.org"

const (
	errNotConfigured = "Bot token or chat ID not configured"
	errTimeout       = "Request timeout - Telegram API not responding"
)

// Client sends messages through the Telegram Bot API
type Client struct {
	baseURL         string
	token           string
	chatID          string
	httpClient      *http.Client
	validateTimeout time.Duration
	logger          *zap.Logger
}

// NewClient creates a Bot API client; timeout bounds sendMessage and validateTimeout bounds getMe
func NewClient(baseURL, token, chatID string, timeout, validateTimeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if validateTimeout <= 0 {
		validateTimeout = 10 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		token:           token,
		chatID:          chatID,
		httpClient:      &http.Client{Timeout: timeout},
		validateTimeout: validateTimeout,
		logger:          logger,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type sentMessage struct {
	MessageID int64 `json:"message_id"`
}

type botUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// Send posts the HTML rendering with parse_mode HTML
func (c *Client) Send(ctx context.Context, msg notifier.Message) *core.DeliveryResult {
	if c.token == "" || c.chatID == "" {
		return &core.DeliveryResult{Success: false, Error: errNotConfigured}
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                c.chatID,
		Text:                  msg.HTML,
		ParseMode:             "HTML",
		DisableWebPagePreview: msg.DisablePreview,
	})
	if err != nil {
		return &core.DeliveryResult{Success: false, Error: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	resp, err := c.call(ctx, http.MethodPost, "sendMessage", body)
	if err != nil {
		return &core.DeliveryResult{Success: false, Error: describe(err)}
	}

	var sent sentMessage
	if err := json.Unmarshal(resp.Result, &sent); err != nil {
		c.logger.Debug("Unexpected sendMessage result", zap.Error(err))
	}

	return &core.DeliveryResult{
		Success:   true,
		MessageID: strconv.FormatInt(sent.MessageID, 10),
	}
}

// Probe calls getMe to verify the bot token
func (c *Client) Probe(ctx context.Context) *core.ConnectionTest {
	if c.token == "" {
		return &core.ConnectionTest{Success: false, Error: "No bot token"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.validateTimeout)
	defer cancel()

	resp, err := c.call(ctx, http.MethodGet, "getMe", nil)
	if err != nil {
		return &core.ConnectionTest{Success: false, Error: describe(err)}
	}

	var bot botUser
	if err := json.Unmarshal(resp.Result, &bot); err != nil {
		return &core.ConnectionTest{Success: false, Error: fmt.Sprintf("failed to decode bot info: %v", err)}
	}

	return &core.ConnectionTest{Success: true, Response: "@" + bot.Username}
}

// apiError is a well-formed Bot API rejection
type apiError struct {
	status      int
	description string
}

func (e *apiError) Error() string {
	return "Telegram API error: " + e.description
}

func (c *Client) call(ctx context.Context, method, endpoint string, body []byte) (*apiResponse, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, endpoint)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &apiError{status: resp.StatusCode, description: fmt.Sprintf("invalid response (status %d)", resp.StatusCode)}
	}

	if resp.StatusCode != http.StatusOK || !out.OK {
		description := out.Description
		if description == "" {
			description = "Unknown error"
		}
		return nil, &apiError{status: resp.StatusCode, description: description}
	}

	return &out, nil
}

func describe(err error) string {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errTimeout
	}
	return fmt.Sprintf("Network error: %v", err)
}
