package aws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"workspace-collab/core"
)

type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewSnapshotStore returns an S3-backed snapshot store; one object per
// document keyed by its id.
func NewSnapshotStore(bucketName string) core.SnapshotStore {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

func (s *s3Store) WriteSnapshot(ctx context.Context, documentID string, content []byte) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(documentID),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		logrus.WithError(err).WithField("document_id", documentID).
			Error("Failed to write snapshot")
		return err
	}
	return nil
}

func (s *s3Store) ReadSnapshot(ctx context.Context, documentID string) ([]byte, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(documentID),
	})
	if err != nil {
		var notFound *s3types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, core.ErrSnapshotNotFound
		}
		logrus.WithError(err).WithField("document_id", documentID).
			Error("Failed to read snapshot")
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
