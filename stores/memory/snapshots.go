package memory

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"workspace-collab/core"
)

type snapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewSnapshotStore returns an in-memory snapshot store. The default
// backend; snapshots do not survive a restart.
func NewSnapshotStore() core.SnapshotStore {
	return &snapshotStore{snapshots: make(map[string][]byte)}
}

func (s *snapshotStore) WriteSnapshot(ctx context.Context, documentID string, content []byte) error {
	stored := make([]byte, len(content))
	copy(stored, content)

	s.mu.Lock()
	s.snapshots[documentID] = stored
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"document_id":  documentID,
		"content_size": len(content),
	}).Debug("snapshot stored")
	return nil
}

func (s *snapshotStore) ReadSnapshot(ctx context.Context, documentID string) ([]byte, error) {
	s.mu.RLock()
	content, ok := s.snapshots[documentID]
	s.mu.RUnlock()

	if !ok {
		return nil, core.ErrSnapshotNotFound
	}

	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}
