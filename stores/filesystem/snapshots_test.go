package filesystem

import (
	"context"
	"errors"
	"testing"

	"workspace-collab/core"
)

func TestWriteReadRoundtrip(t *testing.T) {
	store := NewSnapshotStore(t.TempDir())
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
	store := NewSnapshotStore(t.TempDir())

	_, err := store.ReadSnapshot(context.Background(), "missing")
	if !errors.Is(err, core.ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestWriteOverwrites(t *testing.T) {
	store := NewSnapshotStore(t.TempDir())
	ctx := context.Background()

	store.WriteSnapshot(ctx, "doc1", []byte("old"))
	if err := store.WriteSnapshot(ctx, "doc1", []byte("new")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, _ := store.ReadSnapshot(ctx, "doc1")
	if string(got) != "new" {
		t.Errorf("expected latest content, got %q", got)
	}
}

func TestIdempotentWrite(t *testing.T) {
	store := NewSnapshotStore(t.TempDir())
	ctx := context.Background()

	content := []byte("same")
	if err := store.WriteSnapshot(ctx, "doc1", content); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := store.WriteSnapshot(ctx, "doc1", content); err != nil {
		t.Fatalf("repeated identical write should not error: %v", err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	store := NewSnapshotStore(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b"} {
		if err := store.WriteSnapshot(ctx, id, []byte("x")); err == nil {
			t.Errorf("WriteSnapshot(%q) should reject the id", id)
		}
		if _, err := store.ReadSnapshot(ctx, id); err == nil {
			t.Errorf("ReadSnapshot(%q) should reject the id", id)
		}
	}
}
