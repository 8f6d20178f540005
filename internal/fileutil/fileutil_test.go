package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestDigestAndShortDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	digest, size, err := Digest(path)
	if err != nil {
		t.Fatal(err)
	}
	const want = "a9993e364706816aba3e25717850c26c9cd0d89d"
	if digest != want {
		t.Fatalf("digest mismatch: got %q want %q", digest, want)
	}
	if size != 3 {
		t.Fatalf("size mismatch: got %d", size)
	}
	if got := ShortDigest(digest); got != "a9993e3647" {
		t.Fatalf("short digest: got %q", got)
	}
	if got := ShortDigest("abc"); got != "abc" {
		t.Fatalf("short digest of short input: got %q", got)
	}
}

func TestCopyFileVerifiedPreservesMtime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")

	if err := os.WriteFile(src, []byte("verified copy content"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2021, 7, 4, 12, 0, 0, 0, time.Local)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	digest, err := CopyFileVerified(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	want, _, _ := Digest(src)
	if digest != want {
		t.Fatalf("digest mismatch: got %q want %q", digest, want)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("mtime not preserved: got %v want %v", info.ModTime(), mtime)
	}
}

func TestCopyFileVerifiedRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := CopyFileVerified(src, dst)
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected ErrExist, got %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "old" {
		t.Fatalf("existing destination modified: %q", got)
	}
}

func TestCopyFileVerified_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if _, err := CopyFileVerified(filepath.Join(dir, "nonexistent"), filepath.Join(dir, "dst.bin")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestMoveFileSameDevice(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	fallback, err := MoveFile(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if fallback {
		t.Fatal("did not expect cross-device fallback")
	}
	if ok, _ := Exists(src); ok {
		t.Fatal("source should be gone")
	}
	if ok, _ := Exists(dst); !ok {
		t.Fatal("destination should exist")
	}
}

func TestMoveFileCrossDeviceFallback(t *testing.T) {
	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EXDEV}
	}
	defer func() { renameFunc = old }()

	dir := t.TempDir()
	src := filepath.Join(dir, "a.mov")
	dst := filepath.Join(dir, "b.mov")
	if err := os.WriteFile(src, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	fallback, err := MoveFile(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if !fallback {
		t.Fatal("expected cross-device fallback")
	}
	if ok, _ := Exists(src); ok {
		t.Fatal("source should be removed after fallback copy")
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "video" {
		t.Fatalf("unexpected destination content %q (%v)", got, err)
	}
}

func TestMoveFileOtherErrorsPropagate(t *testing.T) {
	old := renameFunc
	renameFunc = func(oldpath, newpath string) error {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: syscall.EACCES}
	}
	defer func() { renameFunc = old }()

	fallback, err := MoveFile("/a", "/b")
	if err == nil || fallback {
		t.Fatalf("expected plain error without fallback, got fallback=%v err=%v", fallback, err)
	}
}
