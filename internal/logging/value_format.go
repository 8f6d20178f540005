package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const logTimestampLayout = "2006-01-02 15:04:05"

// digestPreview is the number of hex characters shown for sha1 fields.
const digestPreview = 10

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.In(time.Local).Format(logTimestampLayout)
}

// attrString renders subject fields (component, run id, stage) unquoted.
func attrString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindAny {
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
	return v.String()
}

// formatField renders a console key/value line. Byte counts are shown in
// human units and digests are shortened; everything else is quoted only
// when it would be ambiguous.
func formatField(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case isBytesKey(key) && v.Kind() == slog.KindInt64 && v.Int64() >= 0:
		return fmt.Sprintf("%s (%d)", humanize.Bytes(uint64(v.Int64())), v.Int64())
	case isDigestKey(key) && v.Kind() == slog.KindString && len(v.String()) > digestPreview:
		return v.String()[:digestPreview]
	}

	switch v.Kind() {
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	default:
		return quoteIfNeeded(attrString(v))
	}
}

func isBytesKey(key string) bool {
	return key == "bytes" || key == "size" || strings.HasSuffix(key, "_bytes")
}

func isDigestKey(key string) bool {
	return key == "digest" || key == "sha1"
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r < ' ' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}
