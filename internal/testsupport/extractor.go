package testsupport

import (
	"context"
	"path/filepath"
	"sync"
)

// FakeExtractor serves canned tags keyed by base name. It is safe for
// concurrent use.
type FakeExtractor struct {
	mu    sync.Mutex
	Tags  map[string]map[string]string
	Err   map[string]error
	calls map[string]int
}

// NewFakeExtractor returns an extractor answering from tags.
func NewFakeExtractor(tags map[string]map[string]string) *FakeExtractor {
	return &FakeExtractor{Tags: tags, Err: map[string]error{}, calls: map[string]int{}}
}

// Extract implements metadata.Extractor.
func (f *FakeExtractor) Extract(_ context.Context, path string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := filepath.Base(path)
	f.calls[name]++
	if err := f.Err[name]; err != nil {
		return nil, err
	}
	out := map[string]string{}
	for k, v := range f.Tags[name] {
		out[k] = v
	}
	return out, nil
}

// Close implements metadata.Extractor.
func (f *FakeExtractor) Close() error { return nil }

// Calls reports how often name was extracted.
func (f *FakeExtractor) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}
