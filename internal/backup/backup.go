// Package backup writes tar archives of a directory tree with a sha1sum
// companion file.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"mediasort/internal/logging"
	"mediasort/internal/services"
)

const defaultPattern = "%Y%m%d_%H%M%S"

// Options describes one archive.
type Options struct {
	Source   string
	DestDir  string
	Compress bool
	Pattern  string
	Now      time.Time
	Logger   *slog.Logger
}

// Result reports what was written.
type Result struct {
	Archive  string
	Checksum string
	Digest   string
	Bytes    int64
	Entries  int
}

// ArchiveName returns the archive file name for source at now.
func ArchiveName(source, pattern string, now time.Time, compress bool) string {
	if strings.TrimSpace(pattern) == "" {
		pattern = defaultPattern
	}
	name := filepath.Base(filepath.Clean(source)) + "-" + strftime.Format(pattern, now) + ".tar"
	if compress {
		name += ".gz"
	}
	return name
}

// Create archives opts.Source into opts.DestDir.
func Create(ctx context.Context, opts Options) (Result, error) {
	logger := logging.NewComponentLogger(opts.Logger, "backup")

	source, err := filepath.Abs(opts.Source)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "backup", "resolve source", opts.Source, err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, "backup", "stat source", source, err)
	}
	if !info.IsDir() {
		return Result{}, services.Wrap(services.ErrValidation, "backup", "stat source", source+" is not a directory", nil)
	}

	destDir := opts.DestDir
	if strings.TrimSpace(destDir) == "" {
		destDir = "."
	}
	destDir, err = filepath.Abs(destDir)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "backup", "resolve destination", opts.DestDir, err)
	}
	if within(destDir, source) {
		return Result{}, services.Wrap(services.ErrValidation, "backup", "check destination",
			fmt.Sprintf("archive directory %s is inside %s", destDir, source), nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "backup", "create destination", destDir, err)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	name := ArchiveName(source, opts.Pattern, now, opts.Compress)
	archive := filepath.Join(destDir, name)
	if _, err := os.Lstat(archive); err == nil {
		return Result{}, services.Wrap(services.ErrValidation, "backup", "check archive", archive+" already exists", nil)
	}

	partial := archive + ".partial"
	digest, size, entries, err := writeArchive(ctx, partial, source, opts.Compress)
	if err != nil {
		_ = os.Remove(partial)
		return Result{}, err
	}
	if err := os.Rename(partial, archive); err != nil {
		_ = os.Remove(partial)
		return Result{}, services.Wrap(services.ErrTransient, "backup", "finalize archive", archive, err)
	}

	checksum := archive + ".sha1"
	line := fmt.Sprintf("%s  %s\n", digest, name)
	if err := os.WriteFile(checksum, []byte(line), 0o644); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "backup", "write checksum", checksum, err)
	}

	logger.Info("backup archive written",
		logging.String(logging.FieldEventType, "backup_complete"),
		logging.String("archive", archive),
		logging.String("sha1", digest),
		logging.Int64("bytes", size),
		logging.Int("entries", entries),
	)
	return Result{Archive: archive, Checksum: checksum, Digest: digest, Bytes: size, Entries: entries}, nil
}

func writeArchive(ctx context.Context, path, source string, compress bool) (digest string, size int64, entries int, err error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, 0, services.Wrap(services.ErrTransient, "backup", "create archive", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = services.Wrap(services.ErrTransient, "backup", "close archive", path, cerr)
		}
	}()

	hasher := sha1.New()
	counter := &countingWriter{w: io.MultiWriter(file, hasher)}

	var out io.Writer = counter
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(counter)
		out = gz
	}
	tw := tar.NewWriter(out)

	base := filepath.Base(source)
	walkErr := filepath.WalkDir(source, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(source, p)
		if err != nil {
			return err
		}
		name := base
		if rel != "." {
			name = filepath.ToSlash(filepath.Join(base, rel))
		}
		wrote, err := addEntry(tw, p, name, d)
		if err != nil {
			return err
		}
		if wrote {
			entries++
		}
		return nil
	})
	if walkErr != nil {
		return "", 0, 0, services.Wrap(services.ErrTransient, "backup", "write archive", source, walkErr)
	}
	if err := tw.Close(); err != nil {
		return "", 0, 0, services.Wrap(services.ErrTransient, "backup", "close tar", path, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return "", 0, 0, services.Wrap(services.ErrTransient, "backup", "close gzip", path, err)
		}
	}
	if err := file.Sync(); err != nil {
		return "", 0, 0, services.Wrap(services.ErrTransient, "backup", "sync archive", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), counter.n, entries, nil
}

// addEntry writes one tar entry and reports whether it did. Sockets, devices
// and pipes are skipped.
func addEntry(tw *tar.Writer, path, name string, d fs.DirEntry) (bool, error) {
	info, err := d.Info()
	if err != nil {
		return false, err
	}
	link := ""
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return false, err
		}
	} else if !info.Mode().IsRegular() && !info.IsDir() {
		return false, nil
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return false, err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return false, err
	}
	if !info.Mode().IsRegular() {
		return true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return false, err
	}
	return true, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
