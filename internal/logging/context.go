package logging

import (
	"context"
	"log/slog"

	"whetstone/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRequestID is the standardized structured logging key for per-request correlation identifiers.
	FieldRequestID = "request_id"
	// FieldSessionID is the standardized structured logging key for daemon session identifiers.
	FieldSessionID = "session_id"
	// FieldOperation is the standardized structured logging key for the logical operation in flight.
	FieldOperation = "operation"
	// FieldProvider is the standardized structured logging key for the configured backend name.
	FieldProvider = "provider"
	// FieldAttempt is the standardized structured logging key for retry attempt indices.
	FieldAttempt = "attempt"
	// FieldErrorKind is the standardized structured logging key for classified failure kinds.
	FieldErrorKind = "error_kind"
	// FieldEventType is the standardized structured logging key for machine-readable event tags.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for user-actionable recovery hints.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	if sid, ok := services.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, sid))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
