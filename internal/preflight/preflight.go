package preflight

import (
	"context"
	"fmt"
	"strings"

	"mediasort/internal/config"
	"mediasort/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckReadableDirectory("Input directory", cfg.Paths.InputDir))

	// Move mode deletes sources, so the input tree must be writable too.
	if cfg.Organize.Mode == config.ModeMove {
		results = append(results, CheckDirectoryAccess("Input directory (move)", cfg.Paths.InputDir))
	}
	results = append(results, CheckCreatableDirectory("Output directory", cfg.Paths.OutputDir))

	if !cfg.IsDryRun() {
		results = append(results, CheckCreatableDirectory("State directory", cfg.Paths.StateDir))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		detail := status.Detail
		if status.Available && status.Path != "" {
			detail = strings.TrimSpace(status.Path + " " + detail)
		}
		results = append(results, Result{
			Name:     status.Name,
			Passed:   status.Available,
			Detail:   detail,
			Optional: status.Optional,
		})
	}
	return results
}

// Failures returns the required checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err folds failing required checks into one configuration error.
func Err(results []Result) error {
	failed := Failures(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(parts, "; "), nil)
}
