package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
)

// ImplicitTLSPort is the well-known IMAP-over-TLS port
const ImplicitTLSPort = 993

// Dialer opens IMAP sessions with go-imap v2
type Dialer struct {
	logger    *zap.Logger
	timeout   time.Duration
	tlsConfig *tls.Config
}

// NewDialer creates a new IMAP dialer; timeout bounds each session
func NewDialer(logger *zap.Logger, timeout time.Duration) *Dialer {
	return &Dialer{logger: logger, timeout: timeout}
}

// Open connects, authenticates and selects INBOX
func (d *Dialer) Open(ctx context.Context, account *core.Account, password string) (core.MailboxSession, error) {
	port := account.IMAPPort
	if port == 0 {
		port = ImplicitTLSPort
	}
	addr := net.JoinHostPort(account.IMAPHost, strconv.Itoa(port))

	var client *imapclient.Client
	var err error

	opts := &imapclient.Options{TLSConfig: d.tlsConfig}
	if port == ImplicitTLSPort {
		client, err = imapclient.DialTLS(addr, opts)
	} else {
		client, err = imapclient.DialStartTLS(addr, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP %s: %w", addr, err)
	}

	s := &Session{
		client:  client,
		account: account.Email,
		logger:  d.logger.With(zap.String("account", account.Email)),
	}

	// Cancelling ctx or exceeding the timeout tears the connection down so blocked commands return
	sessionCtx := ctx
	var cancel context.CancelFunc = func() {}
	if d.timeout > 0 {
		sessionCtx, cancel = context.WithTimeout(ctx, d.timeout)
	}
	stop := context.AfterFunc(sessionCtx, func() { _ = client.Close() })
	s.release = func() {
		stop()
		cancel()
	}

	username := account.Username
	if username == "" {
		username = account.Email
	}

	if err := client.Login(username, password).Wait(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to authenticate %s: %w", username, err)
	}

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	s.logger.Debug("IMAP session opened", zap.String("addr", addr))
	return s, nil
}

// Session is an authenticated IMAP session with INBOX selected
type Session struct {
	client    *imapclient.Client
	account   string
	logger    *zap.Logger
	release   func()
	closeOnce sync.Once
}

// ListUnseen returns the full batch of unseen messages received on or after the since date
func (s *Session) ListUnseen(ctx context.Context, since time.Time) ([]core.RawMessage, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   since,
	}

	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to search unseen messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(imap.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	messages := make([]core.RawMessage, 0, len(uids))
	for {
		if ctx.Err() != nil {
			return messages, ctx.Err()
		}

		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			s.logger.Warn("Failed to fetch message, skipping", zap.Uint32("seq", msg.SeqNum), zap.Error(err))
			continue
		}

		raw := buf.FindBodySection(bodySection)
		if raw == nil {
			s.logger.Warn("Fetched message has no body, skipping", zap.Uint32("uid", uint32(buf.UID)))
			continue
		}

		messages = append(messages, core.RawMessage{UID: uint32(buf.UID), Raw: raw})
	}

	if err := fetchCmd.Close(); err != nil {
		s.logger.Warn("Fetch finished with errors", zap.Int("fetched", len(messages)), zap.Error(err))
	}

	return messages, nil
}

// MarkRead adds the \Seen flag to a message
func (s *Session) MarkRead(_ context.Context, uid uint32) error {
	storeCmd := s.client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)

	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("failed to mark message %d read: %w", uid, err)
	}
	return nil
}

// CountUnseen returns the number of unseen messages since the given date
func (s *Session) CountUnseen(since time.Time) (int, error) {
	searchData, err := s.client.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   since,
	}, nil).Wait()
	if err != nil {
		return 0, fmt.Errorf("failed to search unseen messages: %w", err)
	}
	return len(searchData.AllUIDs()), nil
}

// Close logs out and closes the connection; later calls are no-ops
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.client.Logout().Wait(); err != nil {
			s.logger.Debug("IMAP logout failed", zap.Error(err))
		}
		_ = s.client.Close()
		if s.release != nil {
			s.release()
		}
	})
	return nil
}
