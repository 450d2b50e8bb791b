package sqlite

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"workspace-collab/core"
)

type sqliteStore struct {
	db *sql.DB
}

// NewSnapshotStore returns a SQLite-backed snapshot store. One row per
// document holding the latest content; writes are upserts, so repeating a
// write with identical content changes nothing.
func NewSnapshotStore(dataSourceName string) core.SnapshotStore {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}

	stmt := `CREATE TABLE IF NOT EXISTS snapshots (
		document_id TEXT PRIMARY KEY,
		content BLOB NOT NULL,
		write_id TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(stmt); err != nil {
		log.Fatalf("failed to create snapshots table: %v", err)
	}

	return &sqliteStore{db: db}
}

func (s *sqliteStore) WriteSnapshot(ctx context.Context, documentID string, content []byte) error {
	writeID := ulid.Make().String()
	log := logrus.WithFields(logrus.Fields{
		"document_id":  documentID,
		"write_id":     writeID,
		"content_size": len(content),
	})

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (document_id, content, write_id, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET
		   content = excluded.content,
		   write_id = excluded.write_id,
		   updated_at = excluded.updated_at`,
		documentID, content, writeID, time.Now().UnixMilli())
	if err != nil {
		log.WithError(err).Error("Failed to write snapshot")
		return err
	}

	log.Debug("Snapshot written successfully")
	return nil
}

func (s *sqliteStore) ReadSnapshot(ctx context.Context, documentID string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT content FROM snapshots WHERE document_id = ?", documentID).Scan(&content)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrSnapshotNotFound
		}
		logrus.WithError(err).WithField("document_id", documentID).
			Error("Failed to read snapshot")
		return nil, err
	}
	return content, nil
}
