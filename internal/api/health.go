package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mikey/llm-mail-digest/internal/core"
)

type check struct {
	Healthy bool           `json:"healthy"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Issues  []string       `json:"issues,omitempty"`
	Missing []string       `json:"missing_required,omitempty"`
	Absent  []string       `json:"missing_optional,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// gatingChecks fail the overall status; criticalChecks are reported as issues rather than warnings
var (
	gatingChecks   = map[string]bool{"database": true, "environment": true, "configuration": true}
	criticalChecks = map[string]bool{"database": true, "environment": true}
)

// HealthCheck handles GET /api/health-check
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	checks := map[string]*check{
		"database":      h.checkDatabase(ctx),
		"environment":   h.checkEnvironment(),
		"configuration": h.checkConfiguration(ctx),
		"activity":      h.checkActivity(ctx),
		"resources":     h.checkResources(),
	}

	healthy := true
	for name, result := range checks {
		if gatingChecks[name] && !result.Healthy {
			healthy = false
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.JSON(code, gin.H{
		"overall_status": status,
		"timestamp":      h.now().UTC().Format(time.RFC3339),
		"version":        h.opts.Version,
		"uptime":         h.now().Sub(h.startedAt).Round(time.Second).String(),
		"checks":         checks,
		"summary":        summarize(checks),
	})
}

func (h *Handler) checkDatabase(ctx context.Context) *check {
	health := h.store.Health(ctx)
	if !health.DatabaseConnected {
		return &check{Message: "Database connection failed", Error: health.Error}
	}
	return &check{
		Healthy: true,
		Message: "Database connection successful",
		Details: map[string]any{
			"active_accounts": health.ActiveAccounts,
			"emails_last_24h": health.EmailsLast24h,
		},
	}
}

func (h *Handler) checkEnvironment() *check {
	result := &check{Details: map[string]any{}}

	var presentRequired, presentOptional int
	for _, name := range sortedKeys(h.opts.RequiredSettings) {
		if h.opts.RequiredSettings[name] {
			presentRequired++
		} else {
			result.Missing = append(result.Missing, name)
		}
	}
	for _, name := range sortedKeys(h.opts.OptionalSettings) {
		if h.opts.OptionalSettings[name] {
			presentOptional++
		} else {
			result.Absent = append(result.Absent, name)
		}
	}

	result.Healthy = len(result.Missing) == 0
	result.Message = "All required settings present"
	if !result.Healthy {
		result.Message = "Missing required settings"
	}
	result.Details["required_vars_present"] = presentRequired
	result.Details["required_vars_total"] = len(h.opts.RequiredSettings)
	result.Details["optional_vars_present"] = presentOptional
	result.Details["optional_vars_total"] = len(h.opts.OptionalSettings)
	return result
}

func (h *Handler) checkConfiguration(ctx context.Context) *check {
	accounts, err := h.store.GetActiveAccounts(ctx)
	if err != nil {
		return &check{Message: "Configuration check failed", Error: err.Error()}
	}
	notifierCfg, err := h.store.GetNotifierConfig(ctx)
	if err != nil {
		return &check{Message: "Configuration check failed", Error: err.Error()}
	}
	aiCfg, err := h.store.GetAIConfig(ctx)
	if err != nil {
		return &check{Message: "Configuration check failed", Error: err.Error()}
	}

	hasAccounts := len(accounts) > 0
	hasNotifier := notifierCfg != nil && notifierCfg.IsActive
	hasAI := aiCfg != nil && aiCfg.IsActive
	full := hasAccounts && hasNotifier && hasAI

	result := &check{
		Healthy: hasAccounts,
		Message: "Configuration incomplete",
		Details: map[string]any{
			"email_accounts":      len(accounts),
			"telegram_configured": hasNotifier,
			"ai_configured":       hasAI,
			"fully_configured":    full,
		},
	}
	if full {
		result.Message = "System fully configured"
	}
	if !hasAccounts {
		result.Issues = append(result.Issues, "No active email accounts configured")
	}
	if !hasNotifier {
		result.Issues = append(result.Issues, "Telegram not configured")
	}
	if !hasAI {
		result.Issues = append(result.Issues, "AI service not configured")
	}
	return result
}

func (h *Handler) checkActivity(ctx context.Context) *check {
	emails, err := h.store.RecentEmails(ctx, 5)
	if err != nil {
		return &check{Healthy: true, Message: "Activity check failed", Error: err.Error()}
	}
	logs, err := h.store.ListLogs(ctx, 10, "")
	if err != nil {
		return &check{Healthy: true, Message: "Activity check failed", Error: err.Error()}
	}

	var lastProcessing, lastActivity any
	errorCount := 0
	for _, entry := range logs {
		if lastProcessing == nil && entry.EventType == core.EventProcessingCompleted {
			lastProcessing = entry.CreatedAt
		}
		if entry.Severity == core.SeverityError {
			errorCount++
		}
	}
	if len(logs) > 0 {
		lastActivity = logs[0].CreatedAt
	}

	return &check{
		Healthy: true,
		Message: fmt.Sprintf("Found %d recent emails and %d log entries", len(emails), len(logs)),
		Details: map[string]any{
			"recent_emails_count":   len(emails),
			"recent_logs_count":     len(logs),
			"last_email_processing": lastProcessing,
			"recent_errors_count":   errorCount,
			"last_activity":         lastActivity,
		},
	}
}

func (h *Handler) checkResources() *check {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return &check{
		Healthy: true,
		Message: "Resource usage within normal limits",
		Details: map[string]any{
			"go_version":    runtime.Version(),
			"platform":      runtime.GOOS + "/" + runtime.GOARCH,
			"goroutines":    runtime.NumGoroutine(),
			"heap_alloc_mb": math.Round(float64(mem.HeapAlloc)/(1<<20)*10) / 10,
		},
	}
}

func summarize(checks map[string]*check) gin.H {
	healthyCount := 0
	issues := []string{}
	warnings := []string{}

	for _, name := range sortedKeys(checks) {
		result := checks[name]
		if result.Healthy {
			healthyCount++
			continue
		}
		entry := name + ": " + result.Message
		if criticalChecks[name] {
			issues = append(issues, entry)
		} else {
			warnings = append(warnings, entry)
		}
	}

	message := "System fully operational"
	switch {
	case len(issues) > 0:
		message = fmt.Sprintf("System unhealthy: %d critical issue(s) found", len(issues))
	case len(warnings) > 0:
		message = fmt.Sprintf("System operational with %d warning(s)", len(warnings))
	}

	percentage := 0.0
	if len(checks) > 0 {
		percentage = math.Round(float64(healthyCount)/float64(len(checks))*1000) / 10
	}

	return gin.H{
		"total_checks":      len(checks),
		"healthy_checks":    healthyCount,
		"health_percentage": percentage,
		"critical_issues":   issues,
		"warnings":          warnings,
		"status_message":    message,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
