package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"workspace-collab/core"
)

const keyPrefix = "snapshot:"

type redisStore struct {
	client *redis.Client
}

// NewSnapshotStore returns a Redis-backed snapshot store; latest content
// per document under a prefixed key, no expiry.
func NewSnapshotStore(addr string) core.SnapshotStore {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &redisStore{client: client}
}

func (s *redisStore) WriteSnapshot(ctx context.Context, documentID string, content []byte) error {
	if err := s.client.Set(ctx, keyPrefix+documentID, content, 0).Err(); err != nil {
		logrus.WithError(err).WithField("document_id", documentID).
			Error("Failed to write snapshot")
		return err
	}
	return nil
}

func (s *redisStore) ReadSnapshot(ctx context.Context, documentID string) ([]byte, error) {
	content, err := s.client.Get(ctx, keyPrefix+documentID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrSnapshotNotFound
		}
		logrus.WithError(err).WithField("document_id", documentID).
			Error("Failed to read snapshot")
		return nil, err
	}
	return content, nil
}
