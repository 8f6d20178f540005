package metadata

import (
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

var captureLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02T15:04:05",
	"2006-01-02T15:04:05",
}

// ParseCaptureTime parses an exiftool-style date. Sub-second and zone suffixes
// are ignored so the camera's wall clock is kept as local time. The 0000
// sentinel year and unparsable input report false.
func ParseCaptureTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < len("2006:01:02 15:04:05") {
		return time.Time{}, false
	}
	if strings.HasPrefix(raw, "0000") {
		return time.Time{}, false
	}
	raw = raw[:len("2006:01:02 15:04:05")]
	for _, layout := range captureLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatPrefix renders t with a strftime pattern such as %Y%m%d_%H%M%S.
func FormatPrefix(pattern string, t time.Time) string {
	return strftime.Format(pattern, t)
}

// resolveTime picks between the embedded capture time and the fallback.
func resolveTime(pattern string, capture, mtime time.Time) Resolved {
	source := SourceMetadata
	chosen := capture
	if chosen.IsZero() {
		source = SourceMtime
		chosen = mtime
	}
	return Resolved{
		Time:   chosen,
		Year:   chosen.Year(),
		Month:  int(chosen.Month()),
		Prefix: FormatPrefix(pattern, chosen),
		Source: source,
	}
}
