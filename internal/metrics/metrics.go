package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmailsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_digest_emails_processed_total",
			Help: "Emails handled by the pipeline by outcome",
		},
		[]string{"status"}, // processed, skipped, filtered, failed
	)

	AccountsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_digest_accounts_total",
			Help: "Account runs by outcome",
		},
		[]string{"status"},
	)

	Summaries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_digest_summaries_total",
			Help: "Summaries by provider and outcome",
		},
		[]string{"provider", "status"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_digest_notifications_total",
			Help: "Notification deliveries by channel and outcome",
		},
		[]string{"channel", "status"},
	)

	RunDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mail_digest_run_duration_seconds",
			Help:    "Duration of a full pipeline run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17m
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mail_digest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// Recorder feeds pipeline, summarizer and notifier outcomes into the collectors above
type Recorder struct{}

// NewRecorder creates a new recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// EmailOutcome counts one email by outcome
func (r *Recorder) EmailOutcome(status string) {
	EmailsProcessed.WithLabelValues(status).Inc()
}

// AccountOutcome counts one account run by outcome
func (r *Recorder) AccountOutcome(status string) {
	AccountsProcessed.WithLabelValues(status).Inc()
}

// RunDuration observes a full run
func (r *Recorder) RunDuration(d time.Duration) {
	RunDurationSeconds.Observe(d.Seconds())
}

// SummaryOutcome counts one summarization attempt
func (r *Recorder) SummaryOutcome(provider, status string) {
	Summaries.WithLabelValues(provider, status).Inc()
}

// NotificationOutcome counts one delivery attempt
func (r *Recorder) NotificationOutcome(channel, status string) {
	Notifications.WithLabelValues(channel, status).Inc()
}

// GinMiddleware records request durations labelled by route template
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
