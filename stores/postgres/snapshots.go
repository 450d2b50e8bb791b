package postgres

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"workspace-collab/core"
)

type pgStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore returns a Postgres-backed snapshot store using a pgx
// connection pool. The schema is created on startup.
func NewSnapshotStore(dsn string) core.SnapshotStore {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("failed to create postgres pool: %v", err)
	}

	stmt := `CREATE TABLE IF NOT EXISTS snapshots (
		document_id TEXT PRIMARY KEY,
		content BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	if _, err := pool.Exec(context.Background(), stmt); err != nil {
		log.Fatalf("failed to create snapshots table: %v", err)
	}

	return &pgStore{pool: pool}
}

func (s *pgStore) WriteSnapshot(ctx context.Context, documentID string, content []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO snapshots (document_id, content, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (document_id) DO UPDATE SET
		   content = EXCLUDED.content,
		   updated_at = EXCLUDED.updated_at`,
		documentID, content)
	if err != nil {
		logrus.WithError(err).WithField("document_id", documentID).
			Error("Failed to write snapshot")
		return err
	}
	return nil
}

func (s *pgStore) ReadSnapshot(ctx context.Context, documentID string) ([]byte, error) {
	var content []byte
	err := s.pool.QueryRow(ctx,
		"SELECT content FROM snapshots WHERE document_id = $1", documentID).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrSnapshotNotFound
		}
		logrus.WithError(err).WithField("document_id", documentID).
			Error("Failed to read snapshot")
		return nil, err
	}
	return content, nil
}
