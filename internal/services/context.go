package services

import "context"

type contextKey string

const (
	jobNameKey   contextKey = "job_name"
	phaseKey     contextKey = "phase"
	requestIDKey contextKey = "request_id"
)

// WithJobName annotates context with the transcription job name.
func WithJobName(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, jobNameKey, name)
}

// JobNameFromContext extracts the transcription job name if present.
func JobNameFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(jobNameKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPhase annotates context with the submission phase name (upload/create/poll).
func WithPhase(ctx context.Context, phase string) context.Context {
	if phase == "" {
		return ctx
	}
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext returns the submission phase name if present.
func PhaseFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(phaseKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
