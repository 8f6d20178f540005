package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// palette holds the level colours for one handler. Each handler forces its
// own colours on or off so a file sink stays plain next to a TTY console.
type palette struct {
	trace *color.Color
	debug *color.Color
	info  *color.Color
	warn  *color.Color
	err   *color.Color
	dim   *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		trace: color.New(color.FgMagenta),
		debug: color.New(color.FgCyan),
		info:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow, color.Bold),
		err:   color.New(color.FgRed, color.Bold),
		dim:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.trace, p.debug, p.info, p.warn, p.err, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) level(level slog.Level) *color.Color {
	switch {
	case level >= slog.LevelError:
		return p.err
	case level >= slog.LevelWarn:
		return p.warn
	case level >= slog.LevelInfo:
		return p.info
	case level >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

type prettyHandler struct {
	mu      *sync.Mutex
	writer  io.Writer
	level   *slog.LevelVar
	attrs   []slog.Attr
	groups  []string
	palette *palette
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, colorize bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, palette: newPalette(colorize)}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	kvs := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	flattenAttrs(&kvs, h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})
	kvs = dedupeKVsByKey(kvs)

	var component, runID, fileIndex, stage string
	fields := make([]kv, 0, len(kvs))
	for _, kv := range kvs {
		switch kv.key {
		case FieldComponent:
			component = attrString(kv.value)
		case FieldRunID:
			runID = attrString(kv.value)
		case FieldFileIndex:
			fileIndex = attrString(kv.value)
		case FieldStage:
			stage = attrString(kv.value)
		default:
			fields = append(fields, kv)
		}
	}

	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	var buf bytes.Buffer
	buf.Grow(128 + len(fields)*32)

	buf.WriteString(h.palette.dim.Sprint(formatTimestamp(timestamp)))
	buf.WriteByte(' ')
	buf.WriteString(h.palette.level(record.Level).Sprintf("%-5s", levelLabel(record.Level)))
	if component != "" {
		buf.WriteString(" [")
		buf.WriteString(component)
		buf.WriteByte(']')
	}
	if subject := FormatSubject(runID, fileIndex, stage); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	buf.WriteString(" – ")
	buf.WriteString(message)
	buf.WriteByte('\n')
	for _, field := range fields {
		buf.WriteString("    - ")
		buf.WriteString(field.key)
		buf.WriteString(": ")
		buf.WriteString(formatField(field.key, field.value))
		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	clone.attrs = append(clone.attrs, attrs...)
	return clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *prettyHandler) clone() *prettyHandler {
	return &prettyHandler{
		mu:      h.mu,
		writer:  h.writer,
		level:   h.level,
		palette: h.palette,
		attrs:   append([]slog.Attr(nil), h.attrs...),
		groups:  append([]string(nil), h.groups...),
	}
}

// FormatSubject builds the "Run <id> · File #n (stage)" subject used in
// console output. Run ids are shortened to their first eight characters.
func FormatSubject(runID, fileIndex, stage string) string {
	runID = strings.TrimSpace(runID)
	fileIndex = strings.TrimSpace(fileIndex)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 2)
	if runID != "" {
		if len(runID) > 8 {
			runID = runID[:8]
		}
		parts = append(parts, "Run "+runID)
	}
	switch {
	case fileIndex != "" && stage != "":
		parts = append(parts, "File #"+fileIndex+" ("+stage+")")
	case fileIndex != "":
		parts = append(parts, "File #"+fileIndex)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}

type kv struct {
	key   string
	value slog.Value
}

func dedupeKVsByKey(attrs []kv) []kv {
	if len(attrs) < 2 {
		return attrs
	}
	positions := make(map[string]int, len(attrs))
	deduped := make([]kv, 0, len(attrs))
	for _, attr := range attrs {
		if attr.key == "" {
			continue
		}
		if pos, ok := positions[attr.key]; ok {
			deduped[pos].value = attr.value
			continue
		}
		positions[attr.key] = len(deduped)
		deduped = append(deduped, attr)
	}
	return deduped
}

func flattenAttrs(dst *[]kv, prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, prefix, attr)
	}
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		flattenAttrs(dst, next, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), key), ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	case level >= slog.LevelDebug:
		return "DEBUG"
	default:
		return "TRACE"
	}
}
