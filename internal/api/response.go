package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mikey/llm-mail-digest/internal/core"
)

// respond writes a successful envelope; body keys are merged next to success and timestamp
func respond(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	if _, ok := body["success"]; !ok {
		body["success"] = true
	}
	body["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	c.JSON(status, body)
}

// fail writes an error envelope; details is omitted when nil
func fail(c *gin.Context, status int, message string, details any) {
	body := gin.H{
		"success":   false,
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if details != nil {
		body["details"] = details
	}
	c.AbortWithStatusJSON(status, body)
}

// failErr maps a classified error onto a status code
func failErr(c *gin.Context, message string, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, message, verr.Errors)
	case errors.Is(err, core.ErrNotFound):
		fail(c, http.StatusNotFound, message, err.Error())
	case errors.Is(err, core.ErrDuplicate):
		fail(c, http.StatusConflict, message, err.Error())
	default:
		fail(c, http.StatusInternalServerError, message, err.Error())
	}
}

// bindJSON decodes the request body into dst; an empty body leaves dst untouched
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		fail(c, http.StatusBadRequest, "Invalid JSON in request body", nil)
		return false
	}
	return true
}
