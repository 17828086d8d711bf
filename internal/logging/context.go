package logging

import (
	"context"
	"log/slog"

	"scribe/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobName is the standardized structured logging key for transcription job names.
	FieldJobName = "job_name"
	// FieldPhase is the standardized structured logging key for submission phase names.
	FieldPhase = "phase"
	// FieldPercent is the standardized structured logging key for progress percentages.
	FieldPercent = "percent"
	// FieldStatus is the standardized structured logging key for remote job statuses.
	FieldStatus = "status"
	// FieldBucket is the standardized structured logging key for storage bucket names.
	FieldBucket = "bucket"
	// FieldKey is the standardized structured logging key for storage object keys.
	FieldKey = "key"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if name, ok := services.JobNameFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobName, name))
	}
	if phase, ok := services.PhaseFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPhase, phase))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
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
