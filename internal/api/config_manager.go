package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/adapters/mailbox"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/mikey/llm-mail-digest/internal/notifier"
	"github.com/mikey/llm-mail-digest/internal/summarizer"
)

type accountRef struct {
	AccountID string `json:"account_id"`
}

// AddEmailAccount handles POST /api/config-manager/email-account
func (h *Handler) AddEmailAccount(c *gin.Context) {
	var in core.AccountInput
	if !bindJSON(c, &in) {
		return
	}

	account, err := mailbox.ValidateAccount(&in)
	if err != nil {
		failErr(c, "Validation failed", err)
		return
	}

	ctx := c.Request.Context()
	probe := mailbox.ProbeAccount(ctx, h.dialer, account, in.Password, h.opts.ProbeLookback)
	if !probe.Success {
		fail(c, http.StatusUnprocessableEntity, "Email connection test failed", probe.Error)
		return
	}

	sealed, err := h.vault.Encrypt(in.Password)
	if err != nil {
		h.logger.Error("Failed to encrypt account password", zap.Error(err))
		fail(c, http.StatusInternalServerError, "Failed to add email account", err.Error())
		return
	}
	account.EncryptedPassword = sealed

	stored, err := h.store.AddAccount(ctx, account)
	if err != nil {
		failErr(c, "Failed to add email account", err)
		return
	}

	respond(c, http.StatusCreated, gin.H{
		"message":         "Email account added successfully: " + stored.Email,
		"account":         stored,
		"connection_test": probe,
	})
}

// TestEmailAccount handles POST /api/config-manager/test-email
func (h *Handler) TestEmailAccount(c *gin.Context) {
	var req accountRef
	if !bindJSON(c, &req) {
		return
	}
	if req.AccountID == "" {
		fail(c, http.StatusBadRequest, "Account ID is required", nil)
		return
	}

	ctx := c.Request.Context()
	account, err := h.store.GetAccount(ctx, req.AccountID)
	if err != nil || !account.IsActive {
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			failErr(c, "Failed to test email account", err)
			return
		}
		fail(c, http.StatusNotFound, "Account not found", nil)
		return
	}

	probe := mailbox.ProbeAccount(ctx, h.dialer, account, h.vault.Decrypt(account.EncryptedPassword), h.opts.ProbeLookback)
	status := http.StatusOK
	if !probe.Success {
		status = http.StatusUnprocessableEntity
	}
	respond(c, status, gin.H{
		"success":      probe.Success,
		"message":      probe.Message,
		"error":        probe.Error,
		"unread_count": probe.UnreadCount,
	})
}

// DeactivateAccount handles POST /api/config-manager/deactivate-account
func (h *Handler) DeactivateAccount(c *gin.Context) {
	var req accountRef
	if !bindJSON(c, &req) {
		return
	}
	if req.AccountID == "" {
		fail(c, http.StatusBadRequest, "Account ID is required", nil)
		return
	}

	if err := h.store.DeactivateAccount(c.Request.Context(), req.AccountID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			fail(c, http.StatusNotFound, "Account not found", nil)
			return
		}
		failErr(c, "Failed to deactivate account", err)
		return
	}

	respond(c, http.StatusOK, gin.H{"message": "Account deactivated: " + req.AccountID})
}

// ListAccounts handles GET /api/config-manager/accounts
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.store.GetActiveAccounts(c.Request.Context())
	if err != nil {
		failErr(c, "Failed to retrieve email accounts", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}

// SetNotifierConfig handles POST /api/config-manager/telegram-config
func (h *Handler) SetNotifierConfig(c *gin.Context) {
	var in core.NotifierConfigInput
	if !bindJSON(c, &in) {
		return
	}

	cfg, warnings, err := notifier.ValidateNotifierConfig(&in)
	if err != nil {
		failErr(c, "Telegram validation failed", err)
		return
	}

	ctx := c.Request.Context()
	n, err := h.notifiers.ForConfig(cfg)
	if err != nil {
		fail(c, http.StatusBadRequest, "Telegram validation failed", []string{err.Error()})
		return
	}

	test := n.SendTest(ctx, "")
	if !test.Success {
		fail(c, http.StatusUnprocessableEntity, "Telegram test failed", test.Error)
		return
	}

	stored, err := h.store.SetNotifierConfig(ctx, cfg)
	if err != nil {
		failErr(c, "Failed to set Telegram config", err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message":     "Telegram configuration saved and tested successfully",
		"config":      stored,
		"test_result": test,
		"warnings":    warnings,
	})
}

type testNotifierRequest struct {
	Message string `json:"message"`
}

// TestNotifier handles POST /api/config-manager/test-telegram
func (h *Handler) TestNotifier(c *gin.Context) {
	var req testNotifierRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	cfg, err := h.store.GetNotifierConfig(ctx)
	if err != nil {
		failErr(c, "Telegram test failed", err)
		return
	}
	if cfg == nil {
		fail(c, http.StatusNotFound, "No Telegram configuration found", nil)
		return
	}

	n, err := h.notifiers.ForConfig(cfg)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Telegram test failed", err.Error())
		return
	}

	result := n.SendTest(ctx, req.Message)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	respond(c, status, gin.H{
		"success":    result.Success,
		"message_id": result.MessageID,
		"error":      result.Error,
	})
}

// NotifierSetup handles GET /api/config-manager/telegram-setup
func (h *Handler) NotifierSetup(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"instructions":   notifier.SetupInstructions,
		"channels":       notifier.Channels(),
		"current_config": h.currentNotifierConfig(c),
	})
}

// SetAIConfig handles POST /api/config-manager/ai-config
func (h *Handler) SetAIConfig(c *gin.Context) {
	var in core.AIConfigInput
	if !bindJSON(c, &in) {
		return
	}

	cfg, err := summarizer.ValidateAIConfig(&in, h.ai.Catalogue())
	if err != nil {
		failErr(c, "AI validation failed", err)
		return
	}

	ctx := c.Request.Context()
	test := h.ai.Validate(ctx, cfg)
	if !test.Valid {
		fail(c, http.StatusUnprocessableEntity, "AI configuration test failed", test.Errors)
		return
	}

	if cfg.APIKey != "" {
		sealed, err := h.vault.Encrypt(cfg.APIKey)
		if err != nil {
			h.logger.Error("Failed to encrypt API key", zap.Error(err))
			fail(c, http.StatusInternalServerError, "Failed to set AI config", err.Error())
			return
		}
		cfg.APIKeyEncrypted = sealed
	}

	stored, err := h.store.SetAIConfig(ctx, cfg)
	if err != nil {
		failErr(c, "Failed to set AI config", err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"message":     "AI configuration saved successfully: " + stored.Provider,
		"config":      stored,
		"test_result": test,
	})
}

// AIProviders handles GET /api/config-manager/ai-providers
func (h *Handler) AIProviders(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"providers":      h.ai.Providers(),
		"current_config": h.currentAIConfig(c),
	})
}

// EmailProviders handles GET /api/config-manager/email-providers
func (h *Handler) EmailProviders(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"providers": mailbox.Providers()})
}

// SystemStatus handles GET /api/config-manager/status
func (h *Handler) SystemStatus(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.store.EmailStats(ctx)
	if err != nil {
		failErr(c, "Failed to get system status", err)
		return
	}

	respond(c, http.StatusOK, gin.H{
		"system_health": h.store.Health(ctx),
		"email_stats":   stats,
		"configurations": gin.H{
			"telegram": h.currentNotifierConfig(c),
			"ai":       h.currentAIConfig(c),
		},
	})
}

// RecentEmails handles GET /api/config-manager/recent-emails
func (h *Handler) RecentEmails(c *gin.Context) {
	limit, ok := queryLimit(c, 20)
	if !ok {
		return
	}

	emails, err := h.store.RecentEmails(c.Request.Context(), limit)
	if err != nil {
		failErr(c, "Failed to get recent emails", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"emails": emails, "count": len(emails)})
}

// SystemLogs handles GET /api/config-manager/logs
func (h *Handler) SystemLogs(c *gin.Context) {
	limit, ok := queryLimit(c, 50)
	if !ok {
		return
	}
	severity := core.Severity(c.Query("severity"))

	logs, err := h.store.ListLogs(c.Request.Context(), limit, severity)
	if err != nil {
		failErr(c, "Failed to get system logs", err)
		return
	}

	var filter any
	if severity != "" {
		filter = severity
	}
	respond(c, http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
		"filters": gin.H{
			"severity": filter,
			"limit":    limit,
		},
	})
}

type cleanupRequest struct {
	Days int `json:"days"`
}

// Cleanup handles POST /api/config-manager/cleanup
func (h *Handler) Cleanup(c *gin.Context) {
	var req cleanupRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Days < 0 {
		fail(c, http.StatusBadRequest, "days must be positive", nil)
		return
	}

	window := h.opts.Retention
	if req.Days > 0 {
		window = time.Duration(req.Days) * 24 * time.Hour
	}

	ctx := c.Request.Context()
	deleted, err := h.store.CleanupOldEmails(ctx, h.now().Add(-window))
	if err != nil {
		failErr(c, "Failed to cleanup old emails", err)
		return
	}

	message := fmt.Sprintf("Cleaned up %d old emails", deleted)
	if err := h.store.AppendLog(ctx, &core.SystemLog{
		EventType: "cleanup_completed",
		Message:   message,
		Severity:  core.SeverityInfo,
		Metadata:  map[string]any{"deleted": deleted, "days": int(window.Hours() / 24)},
	}); err != nil {
		h.logger.Warn("Failed to record cleanup", zap.Error(err))
	}

	respond(c, http.StatusOK, gin.H{"message": message, "deleted": deleted})
}

func (h *Handler) currentNotifierConfig(c *gin.Context) gin.H {
	cfg, err := h.store.GetNotifierConfig(c.Request.Context())
	if err != nil {
		return gin.H{"configured": false, "error": "Failed to check configuration"}
	}
	if cfg == nil {
		return gin.H{"configured": false}
	}
	return gin.H{
		"configured": true,
		"channel":    cfg.Channel,
		"chat_id":    cfg.ChatID,
		"username":   cfg.Username,
		"is_active":  cfg.IsActive,
	}
}

func (h *Handler) currentAIConfig(c *gin.Context) gin.H {
	cfg, err := h.store.GetAIConfig(c.Request.Context())
	if err != nil {
		return gin.H{"configured": false, "error": "Failed to check configuration"}
	}
	if cfg == nil {
		return gin.H{"configured": false}
	}
	return gin.H{
		"configured":  true,
		"provider":    cfg.Provider,
		"model":       cfg.Model,
		"max_tokens":  cfg.MaxTokens,
		"temperature": cfg.Temperature,
		"is_active":   cfg.IsActive,
	}
}

func queryLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		fail(c, http.StatusBadRequest, "limit must be a positive integer", nil)
		return 0, false
	}
	return limit, true
}
