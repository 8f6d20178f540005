package metadata

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/djherbis/times"

	"mediasort/internal/logging"
	"mediasort/internal/services"
)

// serialTags are consulted in order; the first non-empty value wins.
var serialTags = []string{"SerialNumber", "InternalSerialNumber", "BodySerialNumber"}

// Resolver derives capture timestamps for media files.
type Resolver struct {
	extractor  Extractor
	classifier Classifier
	pattern    string
	logger     *slog.Logger
	statMtime  func(path string) (time.Time, error)
}

// NewResolver constructs a resolver. extractor may be nil when only videos
// will be resolved.
func NewResolver(extractor Extractor, classifier Classifier, prefixPattern string, logger *slog.Logger) *Resolver {
	return &Resolver{
		extractor:  extractor,
		classifier: classifier,
		pattern:    prefixPattern,
		logger:     logging.NewComponentLogger(logger, "metadata"),
		statMtime:  modTime,
	}
}

// Resolve reads the file's metadata and derives the timestamp it is filed
// under. Files matching no pattern are treated as photos.
func (r *Resolver) Resolve(ctx context.Context, path string) (MediaFile, Resolved, error) {
	ctx = services.WithStage(ctx, "metadata")
	logger := logging.WithContext(ctx, r.logger)

	kind, _ := r.classifier.Classify(path)
	mtime, err := r.statMtime(path)
	if err != nil {
		return MediaFile{}, Resolved{}, services.Wrap(services.ErrNotFound, "metadata", "stat", path, err)
	}

	name := filepath.Base(path)
	file := MediaFile{
		Path:    path,
		Name:    name,
		Ext:     extension(name),
		Kind:    kind,
		ModTime: mtime,
	}

	if kind == KindPhoto {
		if r.extractor == nil {
			return MediaFile{}, Resolved{}, services.Wrap(services.ErrConfiguration, "metadata", "extract", path, errNoExtractor)
		}
		tags, err := r.extractor.Extract(ctx, path)
		if err != nil {
			return MediaFile{}, Resolved{}, err
		}
		if capture, ok := ParseCaptureTime(tags["CreateDate"]); ok {
			file.Capture = capture
		} else if raw := tags["CreateDate"]; raw != "" {
			logger.Debug("unusable capture date, using modification time", logging.String("create_date", raw))
		}
		for _, tag := range serialTags {
			if v := strings.TrimSpace(tags[tag]); v != "" {
				file.Serial = v
				break
			}
		}
	}

	resolved := resolveTime(r.pattern, file.Capture, file.ModTime)
	logger.Debug("timestamp resolved",
		logging.String("path", path),
		logging.String("kind", string(kind)),
		logging.String("source", string(resolved.Source)),
		logging.String("prefix", resolved.Prefix),
	)
	return file, resolved, nil
}

func modTime(path string) (time.Time, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return ts.ModTime(), nil
}

// extension returns the text after the final dot of name, or "".
func extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}
