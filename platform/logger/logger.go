// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// TransitionEvent logs a successful work-order lifecycle transition.
func (l *Logger) TransitionEvent(workOrderID, action, fromState, toState string) {
	l.Info("workorder_transition",
		slog.String("work_order_id", workOrderID),
		slog.String("action", action),
		slog.String("from", fromState),
		slog.String("to", toState),
	)
}

// StorageWarning logs a non-fatal photo storage failure surfaced as a warning.
func (l *Logger) StorageWarning(workOrderID, operation, path string, err error) {
	l.Warn("storage_warning",
		slog.String("work_order_id", workOrderID),
		slog.String("operation", operation),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
