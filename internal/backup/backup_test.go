package backup_test

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"mediasort/internal/backup"
	"mediasort/internal/services"
	"mediasort/internal/testsupport"
)

var fixedNow = time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)

func sourceTree(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "photos")
	testsupport.WriteMedia(t, filepath.Join(src, "2023", "05", "a.jpg"), "alpha", time.Time{})
	testsupport.WriteMedia(t, filepath.Join(src, "b.mov"), "bravo", time.Time{})
	if err := os.Symlink("b.mov", filepath.Join(src, "latest")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	return src
}

func readTar(t *testing.T, r io.Reader) map[string]*tar.Header {
	t.Helper()
	tr := tar.NewReader(r)
	out := map[string]*tar.Header{}
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("tar next: %v", err)
		}
		out[hdr.Name] = hdr
	}
}

func TestArchiveName(t *testing.T) {
	tests := []struct {
		pattern  string
		compress bool
		want     string
	}{
		{"", true, "photos-20240309_070501.tar.gz"},
		{"%Y-%m-%d", false, "photos-2024-03-09.tar"},
	}
	for _, tc := range tests {
		if got := backup.ArchiveName("/data/photos/", tc.pattern, fixedNow, tc.compress); got != tc.want {
			t.Fatalf("ArchiveName(%q, %v) = %q, want %q", tc.pattern, tc.compress, got, tc.want)
		}
	}
}

func TestCreateCompressedArchive(t *testing.T) {
	src := sourceTree(t)
	dest := t.TempDir()

	res, err := backup.Create(context.Background(), backup.Options{
		Source:   src,
		DestDir:  dest,
		Compress: true,
		Now:      fixedNow,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := filepath.Join(dest, "photos-20240309_070501.tar.gz"); res.Archive != want {
		t.Fatalf("archive = %q, want %q", res.Archive, want)
	}

	data, err := os.ReadFile(res.Archive)
	if err != nil {
		t.Fatal(err)
	}
	sum := sha1.Sum(data)
	if got := hex.EncodeToString(sum[:]); got != res.Digest {
		t.Fatalf("digest = %q, want %q", res.Digest, got)
	}
	if res.Bytes != int64(len(data)) {
		t.Fatalf("bytes = %d, want %d", res.Bytes, len(data))
	}

	line, err := os.ReadFile(res.Checksum)
	if err != nil {
		t.Fatal(err)
	}
	if want := res.Digest + "  photos-20240309_070501.tar.gz\n"; string(line) != want {
		t.Fatalf("checksum line = %q, want %q", line, want)
	}

	f, err := os.Open(res.Archive)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	headers := readTar(t, gz)

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	want := []string{"photos/", "photos/2023/", "photos/2023/05/", "photos/2023/05/a.jpg", "photos/b.mov", "photos/latest"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	if res.Entries != len(want) {
		t.Fatalf("entries count = %d, want %d", res.Entries, len(want))
	}
	link := headers["photos/latest"]
	if link.Typeflag != tar.TypeSymlink || link.Linkname != "b.mov" {
		t.Fatalf("symlink header = %+v", link)
	}
	if _, err := os.Stat(res.Archive + ".partial"); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind: %v", err)
	}
}

func TestCreateUncompressed(t *testing.T) {
	src := sourceTree(t)
	dest := t.TempDir()

	res, err := backup.Create(context.Background(), backup.Options{Source: src, DestDir: dest, Now: fixedNow})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasSuffix(res.Archive, ".tar") {
		t.Fatalf("archive = %q, want .tar suffix", res.Archive)
	}
	f, err := os.Open(res.Archive)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, ok := readTar(t, f)["photos/b.mov"]; !ok {
		t.Fatal("missing photos/b.mov")
	}
}

func TestCreateCountsOnlyArchivedEntries(t *testing.T) {
	src := sourceTree(t)
	if err := unix.Mkfifo(filepath.Join(src, "pipe"), 0o644); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}

	res, err := backup.Create(context.Background(), backup.Options{Source: src, DestDir: t.TempDir(), Now: fixedNow})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f, err := os.Open(res.Archive)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	headers := readTar(t, f)
	if _, ok := headers["photos/pipe"]; ok {
		t.Fatal("named pipe should not be archived")
	}
	if res.Entries != len(headers) {
		t.Fatalf("entries = %d, archive holds %d", res.Entries, len(headers))
	}
}

func TestCreateRejectsDestinationInsideSource(t *testing.T) {
	src := sourceTree(t)
	_, err := backup.Create(context.Background(), backup.Options{
		Source:  src,
		DestDir: filepath.Join(src, "backups"),
		Now:     fixedNow,
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(src, "backups")); !os.IsNotExist(statErr) {
		t.Fatalf("destination should not be created: %v", statErr)
	}
}

func TestCreateRefusesExistingArchive(t *testing.T) {
	src := sourceTree(t)
	dest := t.TempDir()
	opts := backup.Options{Source: src, DestDir: dest, Compress: true, Now: fixedNow}
	if _, err := backup.Create(context.Background(), opts); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := backup.Create(context.Background(), opts); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error on rerun, got %v", err)
	}
}

func TestCreateMissingSource(t *testing.T) {
	_, err := backup.Create(context.Background(), backup.Options{Source: filepath.Join(t.TempDir(), "nope"), DestDir: t.TempDir()})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
