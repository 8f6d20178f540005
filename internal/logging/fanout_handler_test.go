package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestFanoutRespectsPerHandlerLevel(t *testing.T) {
	var verbose, quiet bytes.Buffer
	debugLevel := new(slog.LevelVar)
	debugLevel.Set(slog.LevelDebug)
	errorLevel := new(slog.LevelVar)
	errorLevel.Set(slog.LevelError)

	logger := slog.New(newFanoutHandler(
		newPrettyHandler(&verbose, debugLevel, false),
		newPrettyHandler(&quiet, errorLevel, false),
		nil,
	)).With(slog.String(FieldComponent, "scan"))

	logger.Debug("walking")
	logger.Error("unreadable")

	if !strings.Contains(verbose.String(), "walking") || !strings.Contains(verbose.String(), "unreadable") {
		t.Fatalf("verbose handler missing lines: %q", verbose.String())
	}
	if strings.Contains(quiet.String(), "walking") {
		t.Fatalf("quiet handler should drop debug: %q", quiet.String())
	}
	if !strings.Contains(quiet.String(), "[scan]") {
		t.Fatalf("attrs should propagate through fanout: %q", quiet.String())
	}
}

func TestFanoutCollapsesTrivialCases(t *testing.T) {
	if _, ok := newFanoutHandler().(NoopHandler); !ok {
		t.Fatal("expected noop handler for empty fanout")
	}
	single := NoopHandler{}
	if got := newFanoutHandler(nil, single); got != slog.Handler(single) {
		t.Fatalf("expected single handler passthrough, got %T", got)
	}
}
