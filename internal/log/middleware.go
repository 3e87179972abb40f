package log

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Middleware adds logger to every request context
func Middleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), logger))
		c.Next()
	}
}

// ComponentMiddleware rescopes the request logger to component
func ComponentMiddleware(component string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := FromContext(c.Request.Context()).WithComponent(component)
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), logger))
		c.Next()
	}
}

// RequestIDMiddleware adds the request ID to the request logger
func RequestIDMiddleware(extractRequestID func(context.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := extractRequestID(c.Request.Context())
		if requestID != "" {
			logger := FromContext(c.Request.Context()).With(FieldRequestID, requestID)
			c.Request = c.Request.WithContext(NewContext(c.Request.Context(), logger))
		}
		c.Next()
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

func (sl *StructuredLogger) scoped(fields LogFields) *Logger {
	if component, ok := fields[FieldComponent].(string); ok && component != "" {
		return sl.logger.WithComponent(component)
	}
	return sl.logger
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, requestID, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithRequestID(requestID).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.scoped(fields).InfoContext(ctx, "HTTP request started", fields.ToSlice()...)
}

// LogHTTPEnd logs the completion of an HTTP request. The level follows the status class.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, requestID string, statusCode int, durationMs int64, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithRequestID(requestID).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.scoped(fields).LogContext(ctx, LevelForStatus(statusCode), "HTTP request completed", fields.ToSlice()...)
}

// LogMutation logs a successful ledger write
func (sl *StructuredLogger) LogMutation(ctx context.Context, ownerID, entity, operation string, count int) {
	fields := NewFields().
		WithOwner(ownerID).
		WithEntity(entity, "").
		WithOperation(operation).
		WithCount(count).
		WithComponent(ComponentLedger)

	sl.scoped(fields).InfoContext(ctx, "Ledger mutation applied", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.scoped(allFields).ErrorContext(ctx, msg, allFields.ToSlice()...)
}

// LevelForStatus maps an HTTP status to a log level
func LevelForStatus(statusCode int) slog.Level {
	switch {
	case statusCode >= 500:
		return slog.LevelError
	case statusCode >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
