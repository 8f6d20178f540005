// Package services defines shared utilities consumed by the organizer stages
// and the wrappers around external metadata tools.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, file indexes, and stage names for
//     logging and journal correlation.
//   - Structured error markers plus the Wrap helper that let the CLI tell
//     configuration failures apart from per-file tool failures.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
