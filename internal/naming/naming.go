package naming

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"mediasort/internal/config"
	"mediasort/internal/fileutil"
	"mediasort/internal/metadata"
	"mediasort/internal/services"
)

// Input carries everything needed to name one file.
type Input struct {
	OutputRoot     string
	Resolved       metadata.Resolved
	Source         string
	ProcessingRoot string
	Serial         string
	Digest         string
	Scheme         config.Scheme
}

// Destination is a computed target location.
type Destination struct {
	Root  string
	Year  string
	Month string
	Name  string

	lead string
	stem string
	ext  string
}

// Dir returns <root>/<year>/<month>.
func (d Destination) Dir() string {
	return filepath.Join(d.Root, d.Year, d.Month)
}

// Path returns the full destination path.
func (d Destination) Path() string {
	return filepath.Join(d.Dir(), d.Name)
}

// WithEpoch returns the conflict alternate with -<epoch> inserted
// immediately before the original stem.
func (d Destination) WithEpoch(epoch int64) Destination {
	alt := d
	alt.lead = d.lead + "-" + strconv.FormatInt(epoch, 10)
	alt.Name = compose(alt.lead, d.stem, d.ext)
	return alt
}

// Build computes the destination for in.
func Build(in Input) (Destination, error) {
	if strings.TrimSpace(in.OutputRoot) == "" {
		return Destination{}, invalid("output root is required")
	}
	if in.Resolved.Year <= 0 || in.Resolved.Month < 1 || in.Resolved.Month > 12 {
		return Destination{}, invalid("resolved timestamp is out of range")
	}
	if in.Resolved.Prefix == "" {
		return Destination{}, invalid("timestamp prefix is empty")
	}
	base := filepath.Base(in.Source)
	if in.Source == "" || base == "." || base == string(filepath.Separator) {
		return Destination{}, invalid("source filename is required")
	}

	stem, ext := SplitName(base)
	segments := make([]string, 0, 4)

	switch in.Scheme {
	case config.SchemeChecksum, "":
		if in.Digest == "" {
			return Destination{}, invalid("content digest is required for the checksum scheme")
		}
		segments = append(segments, in.Resolved.Prefix)
		if serial := strings.TrimSpace(in.Serial); serial != "" {
			segments = append(segments, serial)
		}
		segments = append(segments, fileutil.ShortDigest(in.Digest))
	case config.SchemeParent:
		if parent := parentSegment(in.Source, in.ProcessingRoot); parent != "" {
			segments = append(segments, parent)
		}
		segments = append(segments, in.Resolved.Prefix)
		if serial := strings.TrimSpace(in.Serial); serial != "" {
			segments = append(segments, serial)
		}
	default:
		return Destination{}, services.Wrap(services.ErrConfiguration, "naming", "build", "unknown filename scheme "+strconv.Quote(string(in.Scheme)), nil)
	}

	lead := strings.Join(segments, "-")
	return Destination{
		Root:  in.OutputRoot,
		Year:  in.Resolved.YearDir(),
		Month: in.Resolved.MonthDir(),
		Name:  compose(lead, stem, ext),
		lead:  lead,
		stem:  stem,
		ext:   ext,
	}, nil
}

// SplitName splits a base name at its final dot.
func SplitName(base string) (stem, ext string) {
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return base, ""
	}
	return base[:idx], base[idx+1:]
}

func compose(lead, stem, ext string) string {
	name := lead + "-" + stem
	if ext != "" {
		name += "." + ext
	}
	return name
}

// parentSegment returns the immediate parent directory name of source, or ""
// when that parent is the processing root itself.
func parentSegment(source, root string) string {
	parent := filepath.Dir(source)
	if root != "" && sameDir(parent, root) {
		return ""
	}
	name := filepath.Base(parent)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

func sameDir(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func invalid(msg string) error {
	return services.Wrap(services.ErrValidation, "naming", "build", msg, errors.New("invalid input"))
}
