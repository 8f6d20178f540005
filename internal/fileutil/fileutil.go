// Package fileutil provides content digests and durable copy/move helpers for
// placing media files.
package fileutil

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// ShortDigestLen is the number of hex characters used in generated filenames.
const ShortDigestLen = 10

// renameFunc is swapped in tests to simulate cross-device moves.
var renameFunc = os.Rename

// Digest returns the lowercase hex SHA-1 of the whole file and its size.
func Digest(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha1.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("digest %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// ShortDigest truncates a hex digest to ShortDigestLen characters.
func ShortDigest(digest string) string {
	if len(digest) <= ShortDigestLen {
		return digest
	}
	return digest[:ShortDigestLen]
}

// CopyFileVerified streams src to a new file dst with SHA-1 and size
// verification, then carries over the source modification time. dst must not
// exist; an existing destination yields an error satisfying os.ErrExist.
// dst is removed on any failure after creation.
func CopyFileVerified(src, dst string) (string, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		return "", err
	}
	fail := func(err error) (string, error) {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", err
	}

	srcHasher := sha1.New()
	written, err := io.Copy(io.MultiWriter(out, srcHasher), in)
	if err != nil {
		return fail(err)
	}
	if err := out.Sync(); err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return "", err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}

	dstDigest, _, err := Digest(dst)
	if err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	srcDigest := hex.EncodeToString(srcHasher.Sum(nil))
	if srcDigest != dstDigest {
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	if err := os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("preserve modification time: %w", err)
	}
	return srcDigest, nil
}

// MoveFile renames src to dst, falling back to a verified copy followed by
// removal of src when the two paths live on different filesystems.
// It reports whether the fallback was taken.
func MoveFile(src, dst string) (bool, error) {
	err := renameFunc(src, dst)
	if err == nil {
		return false, nil
	}
	if !IsCrossDevice(err) {
		return false, err
	}
	if _, err := CopyFileVerified(src, dst); err != nil {
		return true, fmt.Errorf("cross-device copy: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return true, fmt.Errorf("remove source after cross-device copy: %w", err)
	}
	return true, nil
}

// IsCrossDevice reports whether err stems from a rename across filesystems.
func IsCrossDevice(err error) bool {
	var le *os.LinkError
	if errors.As(err, &le) {
		err = le.Err
	}
	return errors.Is(err, unix.EXDEV)
}

// Exists reports whether path names an existing filesystem entry.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
