package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/adapters/store"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/summarizer"
	"github.com/mikey/llm-mail-digest/internal/vault"
)

const testSecret = "s3cret"

type fakeSession struct{ unseen int }

func (s *fakeSession) ListUnseen(context.Context, time.Time) ([]core.RawMessage, error) {
	return make([]core.RawMessage, s.unseen), nil
}
func (s *fakeSession) MarkRead(context.Context, uint32) error { return nil }
func (s *fakeSession) Close() error                           { return nil }

type fakeDialer struct {
	err      error
	password string
}

func (d *fakeDialer) Open(_ context.Context, _ *core.Account, password string) (core.MailboxSession, error) {
	d.password = password
	if d.err != nil {
		return nil, d.err
	}
	return &fakeSession{unseen: 3}, nil
}

type fakeNotifier struct {
	result *core.DeliveryResult
	custom string
}

func (n *fakeNotifier) NotifyEmail(context.Context, *core.NormalizedMessage, *core.Summary) *core.DeliveryResult {
	return n.result
}
func (n *fakeNotifier) SendAlert(context.Context, string, string, core.Severity) *core.DeliveryResult {
	return n.result
}
func (n *fakeNotifier) SendTest(_ context.Context, custom string) *core.DeliveryResult {
	n.custom = custom
	return n.result
}
func (n *fakeNotifier) Validate(context.Context) *core.ValidationReport {
	return &core.ValidationReport{Valid: n.result.Success}
}
func (n *fakeNotifier) Channel() string { return "telegram" }

type fakeNotifiers struct{ notifier *fakeNotifier }

func (f *fakeNotifiers) ForConfig(*core.NotifierConfig) (core.Notifier, error) {
	return f.notifier, nil
}

type fakeCatalogue struct{}

func (fakeCatalogue) Providers() []string { return []string{"anthropic", "openai"} }
func (fakeCatalogue) Supports(p string) bool {
	return p == "openai" || p == "anthropic"
}
func (fakeCatalogue) Defaults(string) (config.ProviderDefaults, bool) {
	return config.ProviderDefaults{ModelName: "gpt-3.5-turbo", MaxTokens: 150, Temperature: 0.3}, true
}

type fakeAI struct {
	report *core.ValidationReport
	seen   *core.AIConfig
}

func (f *fakeAI) Catalogue() summarizer.Catalogue { return fakeCatalogue{} }
func (f *fakeAI) Providers() []summarizer.ProviderInfo {
	return summarizer.Providers(fakeCatalogue{})
}
func (f *fakeAI) Validate(_ context.Context, cfg *core.AIConfig) *core.ValidationReport {
	f.seen = cfg
	return f.report
}

type fakeRunner struct{ opts core.RunOptions }

func (r *fakeRunner) Run(_ context.Context, opts core.RunOptions) *core.RunReport {
	r.opts = opts
	return &core.RunReport{TriggerType: opts.TriggerType, Errors: []string{}, AccountsProcessed: 1, TotalEmails: 2}
}

type harness struct {
	engine   *gin.Engine
	store    *store.Store
	vault    *vault.Vault
	dialer   *fakeDialer
	notifier *fakeNotifier
	ai       *fakeAI
	runner   *fakeRunner
}

func newHarness(t *testing.T, secret string) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.New(config.StoreConfig{Driver: "sqlite", DSN: "file:" + name + "?mode=memory&cache=shared"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	key, err := vault.GenerateKey()
	require.NoError(t, err)
	v, err := vault.NewFromPassphrase(key, logger)
	require.NoError(t, err)

	h := &harness{
		store:    st,
		vault:    v,
		dialer:   &fakeDialer{},
		notifier: &fakeNotifier{result: &core.DeliveryResult{Success: true, MessageID: "99"}},
		ai:       &fakeAI{report: &core.ValidationReport{Valid: true, Errors: []string{}, Warnings: []string{}}},
		runner:   &fakeRunner{},
	}

	handler := NewHandler(st, v, h.dialer, h.runner, h.ai, &fakeNotifiers{notifier: h.notifier}, Options{
		RequiredSettings: map[string]bool{"MAIL_DIGEST_SERVER_API_SECRET_KEY": secret != ""},
		OptionalSettings: map[string]bool{"MAIL_DIGEST_VAULT_KEY": true},
	}, logger)
	h.engine = NewRouter(handler, secret, logger)
	return h
}

func (h *harness) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	return h.doWithAuth(method, path, body, "Bearer "+testSecret)
}

func (h *harness) doWithAuth(method, path string, body any, auth string) (*httptest.ResponseRecorder, map[string]any) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestBearerAuth(t *testing.T) {
	h := newHarness(t, testSecret)

	rec, body := h.doWithAuth(http.MethodGet, "/api/config-manager/accounts", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unauthorized", body["error"])
	assert.NotEmpty(t, body["timestamp"])

	rec, _ = h.doWithAuth(http.MethodGet, "/api/config-manager/accounts", nil, "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = h.doWithAuth(http.MethodGet, "/api/config-manager/accounts", nil, testSecret)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = h.do(http.MethodGet, "/api/config-manager/accounts", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestBearerAuthSkippedWithoutSecret(t *testing.T) {
	h := newHarness(t, "")

	rec, _ := h.doWithAuth(http.MethodGet, "/api/config-manager/accounts", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownEndpointAndMalformedJSON(t *testing.T) {
	h := newHarness(t, testSecret)

	rec, body := h.do(http.MethodGet, "/api/config-manager/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "Endpoint not found")

	rec, body = h.do(http.MethodPost, "/api/config-manager/email-account", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid JSON in request body", body["error"])
}

func TestRunProcessor(t *testing.T) {
	h := newHarness(t, testSecret)

	rec, body := h.do(http.MethodPost, "/api/email-processor", map[string]string{"trigger_type": "cron", "account_id": "acc-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cron", h.runner.opts.TriggerType)
	assert.Equal(t, "acc-1", h.runner.opts.AccountID)
	result := body["result"].(map[string]any)
	assert.Equal(t, float64(2), result["total_emails"])

	rec, _ = h.do(http.MethodPost, "/api/email-processor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "manual", h.runner.opts.TriggerType)

	rec, body = h.do(http.MethodGet, "/api/email-processor", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email processor is running", body["status"])
	assert.NotNil(t, body["system_health"])
}

func TestAddEmailAccount(t *testing.T) {
	h := newHarness(t, testSecret)

	payload := map[string]any{
		"email":    "user@gmail.com",
		"provider": "gmail",
		"username": "user@gmail.com",
		"password": "app-password",
	}
	rec, body := h.do(http.MethodPost, "/api/config-manager/email-account", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "app-password", h.dialer.password)
	assert.NotContains(t, rec.Body.String(), "app-password")
	assert.NotContains(t, rec.Body.String(), "encrypted_password")

	account := body["account"].(map[string]any)
	assert.Equal(t, "imap.gmail.com", account["imap_host"])
	probe := body["connection_test"].(map[string]any)
	assert.Equal(t, float64(3), probe["unread_count"])

	stored, err := h.store.GetActiveAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "app-password", h.vault.Decrypt(stored[0].EncryptedPassword))

	rec, body = h.do(http.MethodPost, "/api/config-manager/email-account", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Failed to add email account", body["error"])
}

func TestAddEmailAccountValidationAndProbeFailure(t *testing.T) {
	h := newHarness(t, testSecret)

	rec, body := h.do(http.MethodPost, "/api/config-manager/email-account", map[string]any{"email": "bad"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", body["error"])
	assert.NotEmpty(t, body["details"])

	h.dialer.err = errors.New("authentication failed")
	rec, body = h.do(http.MethodPost, "/api/config-manager/email-account", map[string]any{
		"email": "user@gmail.com", "provider": "gmail", "username": "user@gmail.com", "password": "x",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Email connection test failed", body["error"])

	accounts, err := h.store.GetActiveAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestTestAndDeactivateAccount(t *testing.T) {
	h := newHarness(t, testSecret)
	ctx := context.Background()

	sealed, err := h.vault.Encrypt("pw")
	require.NoError(t, err)
	account, err := h.store.AddAccount(ctx, &core.Account{
		Email: "user@gmail.com", Provider: "gmail", IMAPHost: "imap.gmail.com", IMAPPort: 993,
		Username: "user@gmail.com", EncryptedPassword: sealed,
	})
	require.NoError(t, err)

	rec, body := h.do(http.MethodPost, "/api/config-manager/test-email", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Account ID is required", body["error"])

	rec, body = h.do(http.MethodPost, "/api/config-manager/test-email", map[string]string{"account_id": account.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "pw", h.dialer.password)

	rec, _ = h.do(http.MethodPost, "/api/config-manager/deactivate-account", map[string]string{"account_id": account.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = h.do(http.MethodPost, "/api/config-manager/test-email", map[string]string{"account_id": account.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Account not found", body["error"])

	rec, _ = h.do(http.MethodPost, "/api/config-manager/deactivate-account", map[string]string{"account_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotifierConfigEndpoints(t *testing.T) {
	h := newHarness(t, testSecret)

	rec, body := h.do(http.MethodPost, "/api/config-manager/test-telegram", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No Telegram configuration found", body["error"])

	rec, body = h.do(http.MethodPost, "/api/config-manager/telegram-config", map[string]string{"bot_token": "bad", "chat_id": "42"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Telegram validation failed", body["error"])

	rec, body = h.do(http.MethodPost, "/api/config-manager/telegram-config", map[string]string{"bot_token": "123456:ABC-def", "chat_id": "42"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "123456:ABC-def")
	cfg := body["config"].(map[string]any)
	assert.Equal(t, "42", cfg["chat_id"])

	rec, body = h.do(http.MethodPost, "/api/config-manager/test-telegram", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", h.notifier.custom)
	assert.Equal(t, "99", body["message_id"])

	rec, body = h.do(http.MethodGet, "/api/config-manager/telegram-setup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["instructions"], "BotFather")
	current := body["current_config"].(map[string]any)
	assert.Equal(t, true, current["configured"])

	h.notifier.result = &core.DeliveryResult{Error: "Telegram API error: chat not found"}
	rec, body = h.do(http.MethodPost, "/api/config-manager/telegram-config", map[string]string{"bot_token": "123456:ABC-def", "chat_id": "43"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Telegram test failed", body["error"])
	assert.Equal(t, "Telegram API error: chat not found", body["details"])
}

func TestAIConfigEndpoints(t *testing.T) {
	h := newHarness(t, testSecret)

	rec, body := h.do(http.MethodPost, "/api/config-manager/ai-config", map[string]any{"provider": "openai"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "AI validation failed", body["error"])

	rec, body = h.do(http.MethodPost, "/api/config-manager/ai-config", map[string]any{"provider": "openai", "api_key": "sk-test"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "sk-test", h.ai.seen.APIKey)
	assert.NotContains(t, rec.Body.String(), "sk-test")

	stored, err := h.store.GetAIConfig(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "sk-test", h.vault.Decrypt(stored.APIKeyEncrypted))
	assert.Equal(t, 150, stored.MaxTokens)

	rec, body = h.do(http.MethodGet, "/api/config-manager/ai-providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["providers"])
	current := body["current_config"].(map[string]any)
	assert.Equal(t, "openai", current["provider"])

	h.ai.report = &core.ValidationReport{Errors: []string{"Connection test failed: 401"}}
	rec, body = h.do(http.MethodPost, "/api/config-manager/ai-config", map[string]any{"provider": "anthropic", "api_key": "bad"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "AI configuration test failed", body["error"])
}

func TestStatusListingsAndLogs(t *testing.T) {
	h := newHarness(t, testSecret)
	ctx := context.Background()

	require.NoError(t, h.store.AppendLog(ctx, &core.SystemLog{EventType: "x", Message: "boom", Severity: core.SeverityError}))
	require.NoError(t, h.store.AppendLog(ctx, &core.SystemLog{EventType: "y", Message: "ok", Severity: core.SeverityInfo}))

	for _, path := range []string{"/api/config-manager", "/api/config-manager/status"} {
		rec, body := h.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotNil(t, body["system_health"])
		configs := body["configurations"].(map[string]any)
		assert.Equal(t, false, configs["ai"].(map[string]any)["configured"])
	}

	rec, body := h.do(http.MethodGet, "/api/config-manager/logs?severity=error", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	filters := body["filters"].(map[string]any)
	assert.Equal(t, "error", filters["severity"])
	assert.Equal(t, float64(50), filters["limit"])

	rec, _ = h.do(http.MethodGet, "/api/config-manager/recent-emails?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = h.do(http.MethodGet, "/api/config-manager/recent-emails", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])

	rec, body = h.do(http.MethodGet, "/api/config-manager/email-providers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["providers"])

	rec, body = h.do(http.MethodPost, "/api/config-manager/cleanup", map[string]int{"days": 7})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["deleted"])
}

func TestHealthCheck(t *testing.T) {
	h := newHarness(t, testSecret)
	ctx := context.Background()

	rec, body := h.doWithAuth(http.MethodGet, "/api/health-check", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", body["overall_status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, true, checks["database"].(map[string]any)["healthy"])
	assert.Equal(t, false, checks["configuration"].(map[string]any)["healthy"])

	_, err := h.store.AddAccount(ctx, &core.Account{
		Email: "user@gmail.com", Provider: "gmail", IMAPHost: "imap.gmail.com", IMAPPort: 993,
		Username: "user@gmail.com", EncryptedPassword: "x",
	})
	require.NoError(t, err)

	rec, body = h.doWithAuth(http.MethodGet, "/api/health-check", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["overall_status"])
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(5), summary["total_checks"])
	assert.Equal(t, "System fully operational", summary["status_message"])
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
}

func TestHealthCheckMissingSecret(t *testing.T) {
	h := newHarness(t, "")

	rec, body := h.doWithAuth(http.MethodGet, "/api/health-check", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := body["checks"].(map[string]any)["environment"].(map[string]any)
	assert.Equal(t, false, env["healthy"])
	assert.Contains(t, env["missing_required"], "MAIL_DIGEST_SERVER_API_SECRET_KEY")
}

func TestServerStartStop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	srv := NewServer(config.ServerConfig{ListenAddress: "127.0.0.1:0", ShutdownTimeout: time.Second}, engine, zap.NewNop())
	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Stop())
}
