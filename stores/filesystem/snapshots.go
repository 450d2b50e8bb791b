package filesystem

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"workspace-collab/core"
)

type fsStore struct {
	basePath string
}

// NewSnapshotStore returns a filesystem-backed snapshot store; one file per
// document under basePath.
func NewSnapshotStore(basePath string) core.SnapshotStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) path(documentID string) (string, error) {
	// Document ids are opaque; refuse anything that would escape basePath.
	if documentID == "" || filepath.Base(documentID) != documentID {
		return "", fmt.Errorf("invalid document id %q", documentID)
	}
	return filepath.Join(s.basePath, documentID), nil
}

func (s *fsStore) WriteSnapshot(ctx context.Context, documentID string, content []byte) error {
	filePath, err := s.path(documentID)
	if err != nil {
		return err
	}

	log := logrus.WithFields(logrus.Fields{
		"document_id": documentID,
		"file_path":   filePath,
	})

	if err := os.WriteFile(filePath, content, 0644); err != nil {
		log.WithError(err).Error("Failed to write snapshot")
		return err
	}

	log.Debug("Snapshot written successfully")
	return nil
}

func (s *fsStore) ReadSnapshot(ctx context.Context, documentID string) ([]byte, error) {
	filePath, err := s.path(documentID)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrSnapshotNotFound
		}
		logrus.WithError(err).WithField("document_id", documentID).
			Error("Failed to read snapshot")
		return nil, err
	}
	return content, nil
}
