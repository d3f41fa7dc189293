package logging

import (
	"context"
	"log/slog"

	"quill/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldContact is the standardized structured logging key for contact names.
	FieldContact = "contact"
	// FieldUnit is the standardized structured logging key for staged-unit keys.
	FieldUnit = "unit"
	// FieldStage is the standardized structured logging key for enrichment stage names.
	FieldStage = "stage"
	// FieldVariant is the standardized structured logging key for message variants.
	FieldVariant = "variant"
	// FieldRunID is the standardized structured logging key for processing run identifiers.
	FieldRunID = "run_id"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if contact, ok := services.ContactFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldContact, contact))
	}
	if unit, ok := services.UnitFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldUnit, unit))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, rid))
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
