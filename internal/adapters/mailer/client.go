package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/notifier"
)

// Client delivers notifications as plain-text email through an SMTP relay
type Client struct {
	cfg       config.SMTPConfig
	to        string
	timeout   time.Duration
	tlsConfig *tls.Config
	logger    *zap.Logger
}

// NewClient creates an SMTP notification client
func NewClient(cfg config.SMTPConfig, to string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:       cfg,
		to:        to,
		timeout:   timeout,
		tlsConfig: &tls.Config{ServerName: cfg.Host},
		logger:    logger,
	}
}

// Send composes and relays one message
func (c *Client) Send(ctx context.Context, msg notifier.Message) *core.DeliveryResult {
	if c.to == "" {
		return &core.DeliveryResult{Success: false, Error: "recipient not configured"}
	}

	data, messageID, err := c.compose(msg)
	if err != nil {
		return &core.DeliveryResult{Success: false, Error: err.Error()}
	}

	if err := c.relay(ctx, data); err != nil {
		return &core.DeliveryResult{Success: false, Error: err.Error()}
	}

	return &core.DeliveryResult{Success: true, MessageID: messageID}
}

// Probe connects and greets the relay without sending
func (c *Client) Probe(ctx context.Context) *core.ConnectionTest {
	client, err := c.dial(ctx)
	if err != nil {
		return &core.ConnectionTest{Success: false, Error: err.Error()}
	}
	defer client.Close()

	if err := client.Noop(); err != nil {
		return &core.ConnectionTest{Success: false, Error: fmt.Sprintf("NOOP failed: %v", err)}
	}
	if err := client.Quit(); err != nil {
		c.logger.Debug("QUIT command failed", zap.Error(err))
	}
	return &core.ConnectionTest{Success: true, Response: c.address()}
}

func (c *Client) compose(msg notifier.Message) ([]byte, string, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: "Email AI Agent", Address: c.cfg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: c.to}})
	h.SetSubject(msg.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, "", fmt.Errorf("failed to generate message id: %w", err)
	}
	messageID, _ := h.MessageID()

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := w.Write([]byte(msg.Plain())); err != nil {
		w.Close()
		return nil, "", fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close message writer: %w", err)
	}

	return buf.Bytes(), messageID, nil
}

func (c *Client) address() string {
	return fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
}

// dial connects, sends EHLO and negotiates STARTTLS and AUTH when configured
func (c *Client) dial(ctx context.Context) (*smtp.Client, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", c.address())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP relay: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set connection deadline: %w", err)
	}

	var client *smtp.Client
	if c.cfg.StartTLS {
		// NewClientStartTLS greets the relay itself, so EHLO is not repeated here
		client, err = smtp.NewClientStartTLS(conn, c.tlsConfig)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
	} else {
		client = smtp.NewClient(conn)
		if err := client.Hello(hostname); err != nil {
			client.Close()
			return nil, fmt.Errorf("EHLO failed: %w", err)
		}
	}

	if c.cfg.Username != "" {
		auth := sasl.NewPlainClient("", c.cfg.Username, c.cfg.Password)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, fmt.Errorf("AUTH failed: %w", err)
		}
	}

	return client, nil
}

func (c *Client) relay(ctx context.Context, data []byte) error {
	client, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(c.cfg.From, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	if err := client.Rcpt(c.to, nil); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		c.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}
