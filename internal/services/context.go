package services

import "context"

type contextKey string

const (
	contactKey contextKey = "contact"
	unitKey    contextKey = "unit"
	stageKey   contextKey = "stage"
	runIDKey   contextKey = "run_id"
)

// WithContact annotates context with the contact being processed.
func WithContact(ctx context.Context, contact string) context.Context {
	if contact == "" {
		return ctx
	}
	return context.WithValue(ctx, contactKey, contact)
}

// ContactFromContext returns the contact name if present.
func ContactFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(contactKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithUnit annotates context with the staged-unit key being processed.
func WithUnit(ctx context.Context, unit string) context.Context {
	if unit == "" {
		return ctx
	}
	return context.WithValue(ctx, unitKey, unit)
}

// UnitFromContext returns the staged-unit key if present.
func UnitFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(unitKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the enrichment stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the processing run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
