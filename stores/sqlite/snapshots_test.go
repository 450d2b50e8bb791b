package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"workspace-collab/core"
)

func newTestStore(t *testing.T) core.SnapshotStore {
	t.Helper()
	return NewSnapshotStore(filepath.Join(t.TempDir(), "snapshots.db"))
}

func TestWriteReadRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := []byte(`{"ops":[{"insert":"hello"}]}`)
	if err := store.WriteSnapshot(ctx, "doc1", content); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	got, err := store.ReadSnapshot(ctx, "doc1")
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q, want %q", got, content)
	}
}

func TestReadNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ReadSnapshot(context.Background(), "missing")
	if !errors.Is(err, core.ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestUpsertKeepsLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.WriteSnapshot(ctx, "doc1", []byte("rev-1"))
	store.WriteSnapshot(ctx, "doc1", []byte("rev-2"))
	if err := store.WriteSnapshot(ctx, "doc1", []byte("rev-2")); err != nil {
		t.Fatalf("idempotent rewrite should not error: %v", err)
	}

	got, err := store.ReadSnapshot(ctx, "doc1")
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if string(got) != "rev-2" {
		t.Errorf("expected latest revision, got %q", got)
	}
}

func TestDocumentsIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	store.WriteSnapshot(ctx, "doc1", []byte("one"))
	store.WriteSnapshot(ctx, "doc2", []byte("two"))

	got1, _ := store.ReadSnapshot(ctx, "doc1")
	got2, _ := store.ReadSnapshot(ctx, "doc2")
	if string(got1) != "one" || string(got2) != "two" {
		t.Errorf("documents interfered: %q %q", got1, got2)
	}
}
