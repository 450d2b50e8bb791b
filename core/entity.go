package core

import (
	"context"
	"errors"
)

// Document kinds mirror the workspace hierarchy; each kind is editable and
// persisted the same way.
const (
	KindWorkspace = "workspace"
	KindFolder    = "folder"
	KindFile      = "file"
)

// ValidKind reports whether k names a known document kind.
func ValidKind(k string) bool {
	switch k {
	case KindWorkspace, KindFolder, KindFile:
		return true
	}
	return false
}

var (
	// ErrSnapshotNotFound is returned by SnapshotStore.ReadSnapshot when no
	// snapshot has been written for the document.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrUnknownIdentity is returned by IdentityResolver.Resolve when the
	// connection cannot be mapped to a user. Connections with an unknown
	// identity still participate anonymously.
	ErrUnknownIdentity = errors.New("identity unknown")

	// ErrInvalidRoom marks an event whose documentId is missing or malformed.
	// Such events are dropped without affecting the connection.
	ErrInvalidRoom = errors.New("invalid room id")

	// ErrNotInRoom marks a relay request from a connection that has not
	// joined the addressed room.
	ErrNotInRoom = errors.New("connection not in room")
)

type (
	Document struct {
		ID      string
		Kind    string
		Content []byte
	}

	// Identity is what the resolver knows about the user behind a connection.
	Identity struct {
		UserID      string
		DisplayName string
		AvatarRef   string
	}

	// SnapshotStore persists the latest full content of a document. Writes
	// are upserts; writing identical content twice leaves stored state
	// unchanged and does not error.
	SnapshotStore interface {
		WriteSnapshot(ctx context.Context, documentID string, content []byte) error
		ReadSnapshot(ctx context.Context, documentID string) ([]byte, error)
	}

	// IdentityResolver maps a live connection to a user identity.
	IdentityResolver interface {
		Resolve(ctx context.Context, connectionID string) (Identity, error)
	}
)
