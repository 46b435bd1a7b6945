package audiostore

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
)

// MinioStore persists synthesized clips in an S3-compatible bucket so clips
// survive restarts and are shared across instances.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore constructs a store backed by object storage. The bucket must
// already exist; EnsureBucket creates it on startup.
func NewMinioStore(client *minio.Client, bucket string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket}
}

// EnsureBucket creates the bucket when missing.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

// Save implements dialogue.AudioStore.
func (s *MinioStore) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return "/tts/" + name, nil
}

// Get implements dialogue.AudioStore.
func (s *MinioStore) Get(ctx context.Context, name string) ([]byte, string, error) {
	object, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	defer object.Close()
	data, err := io.ReadAll(object)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	info, err := object.Stat()
	if err != nil {
		return nil, "", err
	}
	return data, info.ContentType, nil
}

var _ dialogue.AudioStore = (*MinioStore)(nil)
