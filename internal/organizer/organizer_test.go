package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mediasort/internal/config"
	"mediasort/internal/fileutil"
	"mediasort/internal/metadata"
	"mediasort/internal/naming"
	"mediasort/internal/organizer"
	"mediasort/internal/services"
	"mediasort/internal/testsupport"
)

func setup(t *testing.T, tags map[string]map[string]string, opts ...testsupport.ConfigOption) (*config.Config, *organizer.Organizer, *testsupport.FakeExtractor) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	ex := testsupport.NewFakeExtractor(tags)
	classifier := metadata.NewClassifier(cfg.Organize.PhotoPatterns, cfg.Organize.VideoPatterns)
	resolver := metadata.NewResolver(ex, classifier, cfg.Organize.PrefixPattern, nil)
	clock := func() time.Time { return time.Unix(1700000000, 0) }
	return cfg, organizer.New(cfg, resolver, nil, organizer.WithClock(clock)), ex
}

func TestOrganizeFileScenarioName(t *testing.T) {
	cfg, org, _ := setup(t, map[string]map[string]string{
		"DSC_0001.NEF": {"CreateDate": "2023:05:14 10:22:03", "SerialNumber": "ABC123"},
	})
	src := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "DSC_0001.NEF"), "raw sensor data", time.Now())
	digest, _, err := fileutil.Digest(src)
	if err != nil {
		t.Fatal(err)
	}

	result, err := org.OrganizeFile(context.Background(), src)
	if err != nil {
		t.Fatalf("OrganizeFile: %v", err)
	}
	want := filepath.Join(cfg.Paths.OutputDir, "2023", "05", "20230514_102203-ABC123-"+digest[:10]+"-DSC_0001.NEF")
	if result.Destination != want {
		t.Fatalf("destination mismatch: got %q want %q", result.Destination, want)
	}
	if result.Decision != organizer.DecisionProceed || result.Action != organizer.ActionCopy {
		t.Fatalf("unexpected decision/action %s/%s", result.Decision, result.Action)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("copy mode must keep source: %v", err)
	}
}

func TestOrganizeFileCopyIsIdempotent(t *testing.T) {
	cfg, org, _ := setup(t, map[string]map[string]string{
		"IMG_1.jpg": {"CreateDate": "2020:02:02 02:02:02"},
	})
	src := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "IMG_1.jpg"), "pixels", time.Now())

	first, err := org.OrganizeFile(context.Background(), src)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := org.OrganizeFile(context.Background(), src)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Decision != organizer.DecisionSkipIdentical || second.Action != organizer.ActionSkip {
		t.Fatalf("expected identical skip, got %s/%s", second.Decision, second.Action)
	}
	if second.Destination != first.Destination {
		t.Fatalf("skip should report existing destination %q, got %q", first.Destination, second.Destination)
	}
	files := testsupport.ListFiles(t, cfg.Paths.OutputDir)
	if len(files) != 1 {
		t.Fatalf("expected exactly one destination file, got %v", files)
	}
}

func TestOrganizeFileDivergentCollisionKeepsBoth(t *testing.T) {
	cfg, org, _ := setup(t, map[string]map[string]string{
		"IMG.jpg": {"CreateDate": "2021:03:04 05:06:07"},
	}, testsupport.WithScheme(config.SchemeParent))

	// Both files have parent "x", the same stem, and the same capture time,
	// so the parent scheme maps them to one name.
	a := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "x", "IMG.jpg"), "first", time.Now())
	b := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "y", "x", "IMG.jpg"), "second, different bytes", time.Now())

	first, err := org.OrganizeFile(context.Background(), a)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := org.OrganizeFile(context.Background(), b)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	wantFirst := filepath.Join(cfg.Paths.OutputDir, "2021", "03", "x-20210304_050607-IMG.jpg")
	if first.Destination != wantFirst {
		t.Fatalf("first destination %q want %q", first.Destination, wantFirst)
	}
	wantSecond := filepath.Join(cfg.Paths.OutputDir, "2021", "03", "x-20210304_050607-1700000000-IMG.jpg")
	if second.Destination != wantSecond || second.Decision != organizer.DecisionRenameConflict {
		t.Fatalf("second destination %q (%s) want %q", second.Destination, second.Decision, wantSecond)
	}
	for _, p := range []string{wantFirst, wantSecond} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s to exist: %v", p, err)
		}
	}
}

func buildDest(t *testing.T, cfg *config.Config, name, digest string) naming.Destination {
	t.Helper()
	dest, err := naming.Build(naming.Input{
		OutputRoot: cfg.Paths.OutputDir,
		Resolved:   metadata.Resolved{Year: 2024, Month: 4, Prefix: "20240401_000000"},
		Source:     filepath.Join(cfg.Paths.InputDir, name),
		Digest:     digest,
		Scheme:     config.SchemeParent,
	})
	if err != nil {
		t.Fatalf("naming.Build: %v", err)
	}
	return dest
}

func TestPlaceDirectCollisionHandling(t *testing.T) {
	cfg, org, _ := setup(t, nil)
	ctx := context.Background()

	srcA := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "one.jpg"), "content A", time.Now())
	srcB := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "two.jpg"), "content B", time.Now())
	digestA, _, _ := fileutil.Digest(srcA)
	digestB, _, _ := fileutil.Digest(srcB)

	dest := buildDest(t, cfg, "shared.jpg", digestA)

	res, err := org.Place(ctx, srcA, dest, digestA)
	if err != nil || res.Decision != organizer.DecisionProceed {
		t.Fatalf("first placement: %v %s", err, res.Decision)
	}

	res, err = org.Place(ctx, srcB, dest, digestB)
	if err != nil {
		t.Fatalf("divergent placement: %v", err)
	}
	if res.Decision != organizer.DecisionRenameConflict {
		t.Fatalf("expected rename_conflict, got %s", res.Decision)
	}
	wantAlt := dest.WithEpoch(1700000000).Path()
	if res.Destination != wantAlt {
		t.Fatalf("alternate mismatch: got %q want %q", res.Destination, wantAlt)
	}
	if !strings.Contains(filepath.Base(res.Destination), "-1700000000-") {
		t.Fatalf("expected epoch segment in %q", res.Destination)
	}

	// A third different file skips past the taken alternate.
	srcC := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "three.jpg"), "content C", time.Now())
	digestC, _, _ := fileutil.Digest(srcC)
	res, err = org.Place(ctx, srcC, dest, digestC)
	if err != nil {
		t.Fatalf("third placement: %v", err)
	}
	if res.Destination != dest.WithEpoch(1700000001).Path() {
		t.Fatalf("expected incremented epoch, got %q", res.Destination)
	}

	// Identical content at an alternate is a skip.
	res, err = org.Place(ctx, srcB, dest, digestB)
	if err != nil {
		t.Fatalf("repeat placement: %v", err)
	}
	if res.Decision != organizer.DecisionSkipIdentical || res.Destination != wantAlt {
		t.Fatalf("expected skip at alternate, got %s at %q", res.Decision, res.Destination)
	}

	if got := len(testsupport.ListFiles(t, cfg.Paths.OutputDir)); got != 3 {
		t.Fatalf("expected three distinct files, got %d", got)
	}
}

func TestDryRunTouchesNothing(t *testing.T) {
	cfg, org, _ := setup(t, map[string]map[string]string{
		"IMG_9.jpg": {"CreateDate": "2019:09:09 09:09:09"},
	}, testsupport.WithMode(config.ModeDry))
	src := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "IMG_9.jpg"), "dry", time.Now())

	result, err := org.OrganizeFile(context.Background(), src)
	if err != nil {
		t.Fatalf("OrganizeFile: %v", err)
	}
	if result.Action != organizer.ActionDry {
		t.Fatalf("expected dry action, got %s", result.Action)
	}
	if !strings.HasPrefix(result.Destination, filepath.Join(cfg.Paths.OutputDir, "2019", "09")) {
		t.Fatalf("unexpected planned destination %q", result.Destination)
	}
	if _, err := os.Stat(cfg.Paths.OutputDir); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the output root, stat err=%v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("dry run must leave source: %v", err)
	}
}

func TestMoveModeRemovesSource(t *testing.T) {
	cfg, org, _ := setup(t, nil, testsupport.WithMode(config.ModeMove))
	mtime := time.Date(2022, 1, 3, 12, 0, 0, 0, time.Local)
	src := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "DSC_0002.MOV"), "video bytes", mtime)

	result, err := org.OrganizeFile(context.Background(), src)
	if err != nil {
		t.Fatalf("OrganizeFile: %v", err)
	}
	if filepath.Dir(result.Destination) != filepath.Join(cfg.Paths.OutputDir, "2022", "01") {
		t.Fatalf("video should land in 2022/01, got %q", result.Destination)
	}
	if result.Kind != metadata.KindVideo || result.Resolved.Source != metadata.SourceMtime {
		t.Fatalf("unexpected video resolution %+v", result)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("move must remove source, stat err=%v", err)
	}
}

func TestMetadataFailureIsReported(t *testing.T) {
	cfg, org, ex := setup(t, nil)
	src := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "bad.jpg"), "x", time.Now())
	ex.Err["bad.jpg"] = services.Wrap(services.ErrExternalTool, "metadata", "exiftool", src, errors.New("boom"))

	result, err := org.OrganizeFile(context.Background(), src)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !result.Failed() {
		t.Fatal("result should be marked failed")
	}
	if files := testsupport.ListFiles(t, cfg.Paths.OutputDir); len(files) != 0 {
		t.Fatalf("failed file must not be placed: %v", files)
	}
}

func TestUnknownModeIsConfigurationError(t *testing.T) {
	cfg, org, _ := setup(t, nil, testsupport.WithMode(config.Mode("shuffle")))
	src := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "c.jpg"), "c", time.Now())
	_, err := org.OrganizeFile(context.Background(), src)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestConcurrentIdenticalSourcesYieldOneFile(t *testing.T) {
	cfg, org, _ := setup(t, nil)
	mtime := time.Date(2018, 6, 1, 8, 0, 0, 0, time.Local)
	var paths []string
	for _, dir := range []string{"a", "b", "c", "d"} {
		paths = append(paths, testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, dir, "same.mov"), "identical", mtime))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(paths))
	for _, p := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			if _, err := org.OrganizeFile(context.Background(), p); err != nil {
				errs <- err
			}
		}(p)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("OrganizeFile: %v", err)
	}
	if files := testsupport.ListFiles(t, cfg.Paths.OutputDir); len(files) != 1 {
		t.Fatalf("expected one destination for identical content, got %v", files)
	}
}

func TestJournalRecordsNonDryPlacements(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	classifier := metadata.NewClassifier(cfg.Organize.PhotoPatterns, cfg.Organize.VideoPatterns)
	resolver := metadata.NewResolver(testsupport.NewFakeExtractor(nil), classifier, cfg.Organize.PrefixPattern, nil)
	org := organizer.New(cfg, resolver, nil, organizer.WithRecorder(store))

	src := testsupport.WriteMedia(t, filepath.Join(cfg.Paths.InputDir, "clip.mp4"), "mp4", time.Now())
	ctx := services.WithRunID(context.Background(), "run-1")
	result, err := org.OrganizeFile(ctx, src)
	if err != nil {
		t.Fatalf("OrganizeFile: %v", err)
	}

	entries, err := store.ByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ByRun: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one journal entry, got %d", len(entries))
	}
	if entries[0].Destination != result.Destination || entries[0].Action != "copy" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}
