package metadata

import (
	"context"
	"fmt"
	"time"
)

// Kind distinguishes photos from videos.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// Source records where a resolved timestamp came from.
type Source string

const (
	SourceMetadata Source = "metadata"
	SourceMtime    Source = "mtime"
)

// Extractor reads embedded tags keyed by exiftool tag name. Missing tags are
// absent from the map; an error means the tool itself failed for this file.
type Extractor interface {
	Extract(ctx context.Context, path string) (map[string]string, error)
	Close() error
}

// MediaFile is the read-only view of one candidate file.
type MediaFile struct {
	Path    string
	Name    string
	Ext     string
	Kind    Kind
	Capture time.Time // zero when no usable embedded timestamp exists
	Serial  string
	ModTime time.Time
}

// Resolved is the timestamp a file is filed under.
type Resolved struct {
	Time   time.Time
	Year   int
	Month  int
	Prefix string
	Source Source
}

// YearDir returns the four-digit year directory name.
func (r Resolved) YearDir() string {
	return fmt.Sprintf("%04d", r.Year)
}

// MonthDir returns the two-digit month directory name.
func (r Resolved) MonthDir() string {
	return fmt.Sprintf("%02d", r.Month)
}
