package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/core"
)

type runRequest struct {
	TriggerType string `json:"trigger_type"`
	AccountID   string `json:"account_id"`
}

// RunProcessor handles POST /api/email-processor
func (h *Handler) RunProcessor(c *gin.Context) {
	var req runRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.TriggerType == "" {
		req.TriggerType = "manual"
	}

	h.logger.Info("Processing triggered",
		zap.String("trigger_type", req.TriggerType),
		zap.String("account_id", req.AccountID))

	report := h.runner.Run(c.Request.Context(), core.RunOptions{
		TriggerType: req.TriggerType,
		AccountID:   req.AccountID,
	})

	respond(c, http.StatusOK, gin.H{
		"message":      "Email processing completed successfully",
		"trigger_type": req.TriggerType,
		"result":       report,
	})
}

// ProcessorStatus handles GET /api/email-processor
func (h *Handler) ProcessorStatus(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"status":        "Email processor is running",
		"system_health": h.store.Health(c.Request.Context()),
	})
}
