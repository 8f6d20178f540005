package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"mediasort/internal/config"
)

const (
	// LevelTrace is emitted only when LOG_LEVEL=ALL.
	LevelTrace = slog.Level(-8)
	// levelOff is above every level used by the codebase.
	levelOff = slog.Level(100)
)

// Options describes logger construction parameters.
type Options struct {
	Level string
	// Format selects "console" or "json".
	Format string
	// Color is "auto", "always", or "never"; auto colours only terminals.
	Color string
	// OutputPaths lists console sinks: "stdout", "stderr", or file paths.
	OutputPaths []string
	// FilePath adds a plain, never coloured, log file when set.
	FilePath string
	// Console overrides OutputPaths with an explicit writer (tests).
	Console io.Writer
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if level >= levelOff {
		return NewNop(), nil
	}
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	console := opts.Console
	if console == nil {
		console, err = openWriters(defaultSlice(opts.OutputPaths, []string{"stderr"}))
		if err != nil {
			return nil, err
		}
	}

	handlers := []slog.Handler{newHandler(format, console, levelVar, shouldColorize(opts.Color, console))}
	if path := strings.TrimSpace(opts.FilePath); path != "" {
		file, err := openFile(path)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, newHandler(format, file, levelVar, false))
	}
	return slog.New(newFanoutHandler(handlers...)), nil
}

// NewFromConfig creates a logger using the configured logging section.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "INFO", Format: "console", Color: "auto"})
	}
	return New(Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Color:    cfg.Logging.Color,
		FilePath: cfg.Logging.File,
	})
}

// ParseLevel maps a LOG_LEVEL name onto a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "ALL", "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "INFO", "":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "OFF", "NONE":
		return levelOff, nil
	default:
		return 0, fmt.Errorf("log level: unsupported value %q", level)
	}
}

func newHandler(format string, w io.Writer, lvl *slog.LevelVar, colorize bool) slog.Handler {
	if format == "json" {
		return newJSONHandler(w, lvl)
	}
	return newPrettyHandler(w, lvl, colorize)
}

func shouldColorize(mode string, w io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "never":
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func defaultSlice(value []string, fallback []string) []string {
	if len(value) == 0 {
		return append([]string(nil), fallback...)
	}
	return append([]string(nil), value...)
}

func openWriters(paths []string) (io.Writer, error) {
	seen := map[string]struct{}{}
	var writers []io.Writer
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}

		switch trimmed {
		case "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			file, err := openFile(trimmed)
			if err != nil {
				return nil, err
			}
			writers = append(writers, file)
		}
	}

	switch len(writers) {
	case 0:
		return os.Stderr, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func openFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}
