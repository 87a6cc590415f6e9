package mailbox

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mikey/llm-mail-digest/internal/core"
)

// ProviderSettings describes how to reach a well-known mail provider
type ProviderSettings struct {
	Name     string `json:"name"`
	IMAPHost string `json:"imap_host"`
	IMAPPort int    `json:"imap_port"`
	Notes    string `json:"notes"`
}

var providers = map[string]ProviderSettings{
	"gmail": {
		Name:     "gmail",
		IMAPHost: "imap.gmail.com",
		IMAPPort: ImplicitTLSPort,
		Notes:    "Use App Password, not regular password",
	},
	"outlook": {
		Name:     "outlook",
		IMAPHost: "outlook.office365.com",
		IMAPPort: ImplicitTLSPort,
		Notes:    "Works with regular password or app password",
	},
	"yahoo": {
		Name:     "yahoo",
		IMAPHost: "imap.mail.yahoo.com",
		IMAPPort: ImplicitTLSPort,
		Notes:    "Requires app password",
	},
	"icloud": {
		Name:     "icloud",
		IMAPHost: "imap.mail.me.com",
		IMAPPort: ImplicitTLSPort,
		Notes:    "Requires app-specific password",
	},
	"custom": {
		Name:     "custom",
		IMAPPort: ImplicitTLSPort,
		Notes:    "Custom IMAP server",
	},
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Providers returns the provider catalogue sorted by name
func Providers() []ProviderSettings {
	out := make([]ProviderSettings, 0, len(providers))
	for _, p := range providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Settings resolves host and port for a provider; custom uses the supplied values
func Settings(provider, customHost string, customPort int) ProviderSettings {
	settings, ok := providers[provider]
	if !ok {
		settings = providers["custom"]
	}
	if settings.Name == "custom" && customHost != "" {
		settings.IMAPHost = customHost
		if customPort > 0 {
			settings.IMAPPort = customPort
		}
	}
	return settings
}

// IsEmail reports whether s looks like an email address
func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidateAccount checks an account payload and resolves it into an Account.
// The returned Account carries no password; the caller encrypts it separately.
func ValidateAccount(in *core.AccountInput) (*core.Account, error) {
	verr := &core.ValidationError{}

	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.Provider = strings.ToLower(strings.TrimSpace(in.Provider))

	for _, field := range []struct{ name, value string }{
		{"email", in.Email},
		{"username", in.Username},
		{"password", in.Password},
		{"provider", in.Provider},
	} {
		if field.value == "" {
			verr.Add("Missing required field: %s", field.name)
		}
	}

	if in.Email != "" && !IsEmail(in.Email) {
		verr.Add("Invalid email format")
	}

	if _, ok := providers[in.Provider]; in.Provider != "" && !ok {
		verr.Add("Unsupported provider: %s", in.Provider)
	}

	if in.Provider == "custom" {
		if strings.TrimSpace(in.IMAPHost) == "" {
			verr.Add("Custom provider requires imap_host")
		}
		if in.IMAPPort == 0 {
			in.IMAPPort = ImplicitTLSPort
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	settings := Settings(in.Provider, strings.TrimSpace(in.IMAPHost), in.IMAPPort)
	return &core.Account{
		Email:    in.Email,
		Provider: in.Provider,
		IMAPHost: settings.IMAPHost,
		IMAPPort: settings.IMAPPort,
		Username: in.Username,
		IsActive: true,
	}, nil
}

// ProbeResult reports a live mailbox check
type ProbeResult struct {
	Success     bool   `json:"success"`
	UnreadCount int    `json:"unread_count"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ProbeAccount opens a session, counts unseen messages in the lookback window and closes it
func ProbeAccount(ctx context.Context, dialer core.MailboxDialer, account *core.Account, password string, lookback time.Duration) *ProbeResult {
	session, err := dialer.Open(ctx, account, password)
	if err != nil {
		return &ProbeResult{Error: fmt.Sprintf("Failed to connect to IMAP server: %v", err)}
	}
	defer session.Close()

	since := time.Now().Add(-lookback)

	var count int
	if counter, ok := session.(interface {
		CountUnseen(time.Time) (int, error)
	}); ok {
		count, err = counter.CountUnseen(since)
	} else {
		var msgs []core.RawMessage
		msgs, err = session.ListUnseen(ctx, since)
		count = len(msgs)
	}
	if err != nil {
		return &ProbeResult{Error: fmt.Sprintf("Connected but failed to list messages: %v", err)}
	}

	return &ProbeResult{
		Success:     true,
		UnreadCount: count,
		Message:     fmt.Sprintf("Successfully connected. Found %d unread emails.", count),
	}
}
