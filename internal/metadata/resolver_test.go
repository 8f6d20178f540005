package metadata_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediasort/internal/metadata"
	"mediasort/internal/services"
)

type fakeExtractor struct {
	tags  map[string]map[string]string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (map[string]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tags[filepath.Base(path)], nil
}

func (f *fakeExtractor) Close() error { return nil }

func writeFile(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func newResolver(ex metadata.Extractor) *metadata.Resolver {
	classifier := metadata.NewClassifier([]string{"*.jpg", "*.nef"}, []string{"*.mov", "*.mp4"})
	return metadata.NewResolver(ex, classifier, "%Y%m%d_%H%M%S", nil)
}

func TestResolvePhotoUsesCreateDate(t *testing.T) {
	dir := t.TempDir()
	ex := &fakeExtractor{tags: map[string]map[string]string{
		"DSC_0001.NEF": {"CreateDate": "2023:05:14 10:22:03", "SerialNumber": " ABC123 "},
		"copy.jpg":     {"CreateDate": "2023:05:14 10:22:03"},
	}}
	a := writeFile(t, dir, "DSC_0001.NEF", time.Date(2019, 1, 1, 0, 0, 0, 0, time.Local))
	b := writeFile(t, dir, "copy.jpg", time.Date(2024, 12, 31, 23, 0, 0, 0, time.Local))

	r := newResolver(ex)
	fileA, resA, err := r.Resolve(context.Background(), a)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	_, resB, err := r.Resolve(context.Background(), b)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if resA.Year != 2023 || resA.Month != 5 {
		t.Fatalf("unexpected year-month %d-%d", resA.Year, resA.Month)
	}
	if resA.Year != resB.Year || resA.Month != resB.Month {
		t.Fatalf("identical capture metadata must share year-month: %v vs %v", resA, resB)
	}
	if resA.Prefix != "20230514_102203" {
		t.Fatalf("unexpected prefix %q", resA.Prefix)
	}
	if resA.Source != metadata.SourceMetadata {
		t.Fatalf("unexpected source %q", resA.Source)
	}
	if fileA.Serial != "ABC123" {
		t.Fatalf("expected trimmed serial, got %q", fileA.Serial)
	}
	if fileA.Ext != "NEF" || fileA.Kind != metadata.KindPhoto {
		t.Fatalf("unexpected file classification %+v", fileA)
	}
	if resA.YearDir() != "2023" || resA.MonthDir() != "05" {
		t.Fatalf("unexpected dirs %s/%s", resA.YearDir(), resA.MonthDir())
	}
}

func TestResolvePhotoFallsBackToMtime(t *testing.T) {
	cases := map[string]map[string]string{
		"missing.jpg":  {},
		"sentinel.jpg": {"CreateDate": "0000:00:00 00:00:00"},
		"garbage.jpg":  {"CreateDate": "yesterday"},
	}
	dir := t.TempDir()
	mtime := time.Date(2021, 8, 9, 7, 6, 5, 0, time.Local)
	r := newResolver(&fakeExtractor{tags: cases})
	for name := range cases {
		path := writeFile(t, dir, name, mtime)
		_, res, err := r.Resolve(context.Background(), path)
		if err != nil {
			t.Fatalf("%s: Resolve: %v", name, err)
		}
		if res.Year != 2021 || res.Month != 8 {
			t.Fatalf("%s: expected mtime year-month, got %d-%d", name, res.Year, res.Month)
		}
		if res.Source != metadata.SourceMtime {
			t.Fatalf("%s: expected mtime source, got %q", name, res.Source)
		}
		if res.Prefix != "20210809_070605" {
			t.Fatalf("%s: unexpected prefix %q", name, res.Prefix)
		}
	}
}

func TestResolveVideoIgnoresExtractor(t *testing.T) {
	dir := t.TempDir()
	ex := &fakeExtractor{err: errors.New("must not be called")}
	path := writeFile(t, dir, "DSC_0002.MOV", time.Date(2022, 1, 3, 9, 0, 0, 0, time.Local))

	file, res, err := newResolver(ex).Resolve(context.Background(), path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ex.calls != 0 {
		t.Fatalf("extractor consulted %d times for a video", ex.calls)
	}
	if file.Kind != metadata.KindVideo || file.Serial != "" {
		t.Fatalf("unexpected video file %+v", file)
	}
	if res.YearDir() != "2022" || res.MonthDir() != "01" {
		t.Fatalf("unexpected video dirs %s/%s", res.YearDir(), res.MonthDir())
	}
}

func TestResolveToolFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.jpg", time.Now())
	ex := &fakeExtractor{err: services.Wrap(services.ErrExternalTool, "metadata", "exiftool", path, errors.New("exit 1"))}

	_, _, err := newResolver(ex).Resolve(context.Background(), path)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestResolveMissingFile(t *testing.T) {
	_, _, err := newResolver(&fakeExtractor{}).Resolve(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveSerialFallbackOrder(t *testing.T) {
	dir := t.TempDir()
	ex := &fakeExtractor{tags: map[string]map[string]string{
		"a.jpg": {"InternalSerialNumber": "INT1", "BodySerialNumber": "BODY1"},
		"b.jpg": {"BodySerialNumber": "BODY2"},
	}}
	r := newResolver(ex)
	for name, want := range map[string]string{"a.jpg": "INT1", "b.jpg": "BODY2"} {
		path := writeFile(t, dir, name, time.Now())
		file, _, err := r.Resolve(context.Background(), path)
		if err != nil {
			t.Fatalf("Resolve %s: %v", name, err)
		}
		if file.Serial != want {
			t.Fatalf("%s: serial %q want %q", name, file.Serial, want)
		}
	}
}
