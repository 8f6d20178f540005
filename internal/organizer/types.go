package organizer

import (
	"context"

	"mediasort/internal/config"
	"mediasort/internal/metadata"
)

// Decision is the outcome of comparing a destination against the source.
type Decision string

const (
	DecisionProceed        Decision = "proceed"
	DecisionSkipIdentical  Decision = "skip_identical"
	DecisionRenameConflict Decision = "rename_conflict"
)

// Action is what was done (or, in dry-run, would have been done).
type Action string

const (
	ActionCopy Action = "copy"
	ActionMove Action = "move"
	ActionDry  Action = "dry"
	ActionSkip Action = "skip"
)

// Result describes one file's outcome.
type Result struct {
	Index       int
	Source      string
	Destination string
	Kind        metadata.Kind
	Resolved    metadata.Resolved
	Decision    Decision
	Action      Action
	Mode        config.Mode
	Bytes       int64
	Digest      string
	CrossDevice bool
	Err         error
}

// Failed reports whether the file could not be organized.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Resolver derives capture timestamps.
type Resolver interface {
	Resolve(ctx context.Context, path string) (metadata.MediaFile, metadata.Resolved, error)
}
