package metadata

import (
	"path/filepath"
	"strings"
)

// Classifier decides which candidates are photos or videos from glob
// patterns matched case-insensitively against the base name.
type Classifier struct {
	photo []string
	video []string
}

// NewClassifier builds a Classifier; patterns are lower-cased.
func NewClassifier(photo, video []string) Classifier {
	return Classifier{photo: lowerAll(photo), video: lowerAll(video)}
}

// Classify returns the kind of path and whether any pattern matched.
func (c Classifier) Classify(path string) (Kind, bool) {
	name := strings.ToLower(filepath.Base(path))
	if matchAny(c.video, name) {
		return KindVideo, true
	}
	if matchAny(c.photo, name) {
		return KindPhoto, true
	}
	return KindPhoto, false
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		out = append(out, strings.ToLower(p))
	}
	return out
}
