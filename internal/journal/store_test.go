package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	runID := NewRunID()

	for i, name := range []string{"a.jpg", "b.jpg", "c.mov"} {
		err := store.Record(ctx, Entry{
			RunID:           runID,
			Source:          "/in/" + name,
			Destination:     "/out/2023/05/" + name,
			Digest:          "digest-" + name,
			Decision:        "proceed",
			Action:          "copy",
			Mode:            "copy",
			Bytes:           int64(100 * (i + 1)),
			TimestampSource: "metadata",
		})
		if err != nil {
			t.Fatalf("Record %s: %v", name, err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].Source != "/in/c.mov" || recent[1].Source != "/in/b.jpg" {
		t.Fatalf("expected newest first, got %q then %q", recent[0].Source, recent[1].Source)
	}
	if recent[0].Bytes != 300 || recent[0].TimestampSource != "metadata" {
		t.Fatalf("unexpected entry %+v", recent[0])
	}
	if recent[0].CreatedAt.IsZero() {
		t.Fatal("expected created_at to round-trip")
	}

	byRun, err := store.ByRun(ctx, runID)
	if err != nil {
		t.Fatalf("ByRun: %v", err)
	}
	if len(byRun) != 3 || byRun[0].Source != "/in/a.jpg" {
		t.Fatalf("unexpected run entries %+v", byRun)
	}
}

func TestByDigestMatchesPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if entries, err := store.ByDigest(ctx, "abc", 0); err != nil || len(entries) != 0 {
		t.Fatalf("expected no match, got %v %v", entries, err)
	}
	for i, digest := range []string{"abc123ff", "abd000aa", "abc123ff"} {
		err := store.Record(ctx, Entry{
			RunID:       "r1",
			Source:      "/s",
			Destination: "/d" + string(rune('0'+i)),
			Digest:      digest,
			Decision:    "proceed",
			Action:      "move",
			Mode:        "move",
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := store.ByDigest(ctx, "ABC123", 10)
	if err != nil {
		t.Fatalf("ByDigest: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Destination != "/d2" || entries[1].Destination != "/d0" {
		t.Fatalf("expected newest first, got %q then %q", entries[0].Destination, entries[1].Destination)
	}
	if _, err := store.ByDigest(ctx, "  ", 10); err == nil {
		t.Fatal("expected error for empty prefix")
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	store := openTestStore(t)
	if err := store.Record(context.Background(), Entry{Source: "/s"}); err == nil {
		t.Fatal("expected error without run id")
	}
}

func TestReopenChecksSchemaVersion(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.ExecContext(ctx, "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	_, err = Open(ctx, path)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestRetryOnBusy(t *testing.T) {
	attempts := 0
	err := retryOnBusy(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("expected success on third attempt, got %v after %d", err, attempts)
	}

	attempts = 0
	plain := errors.New("constraint failed")
	if err := retryOnBusy(context.Background(), func() error { attempts++; return plain }); !errors.Is(err, plain) || attempts != 1 {
		t.Fatalf("non-busy errors must not retry: %v after %d", err, attempts)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(2 * time.Millisecond)
	if err := retryOnBusy(ctx, func() error { return errors.New("SQLITE_BUSY") }); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
