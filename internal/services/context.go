package services

import "context"

type contextKey string

const (
	fileIndexKey contextKey = "file_index"
	stageKey     contextKey = "stage"
	runIDKey     contextKey = "run_id"
)

// WithFileIndex annotates context with the 1-based position of the file in
// the enumeration order.
func WithFileIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, fileIndexKey, index)
}

// FileIndexFromContext extracts the file index if present.
func FileIndexFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(fileIndexKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRunID annotates context with the invocation correlation identifier.
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
