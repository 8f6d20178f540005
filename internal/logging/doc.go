// Package logging assembles structured slog loggers and formatting helpers used
// across mediasort.
//
// It owns the colourised console and JSON handlers, maps the LOG_LEVEL names
// (ALL through OFF) onto slog levels, fans output out to an optional plain log
// file, and exposes context-aware helpers so per-file code can tag log lines
// with the run id, file index, and stage. A no-op logger is provided for tests
// and wiring code that cannot fail.
package logging
