package summarizer

import (
	"context"
	"errors"
	"net"
	"strings"
)

var connectionIndicators = []string{
	"connection refused",
	"no such host",
	"network is unreachable",
	"connection reset",
	"timeout",
	"dial tcp",
	"eof",
}

var quotaIndicators = []string{
	"429",
	"quota",
	"rate limit",
	"too many requests",
	"resource exhausted",
	"resource_exhausted",
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return containsAny(err.Error(), connectionIndicators)
}

// isQuotaError checks if the error indicates API quota exhaustion
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), quotaIndicators)
}

// classify labels a provider error for logs and metrics
func classify(err error) string {
	switch {
	case isQuotaError(err):
		return "quota"
	case isConnectionError(err):
		return "connection"
	default:
		return "provider"
	}
}

func containsAny(s string, indicators []string) bool {
	lower := strings.ToLower(s)
	for _, indicator := range indicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
