package miniostore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"showrunner/contexts/production/series-production/domain/entities"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore persists generated media in a MinIO bucket under deterministic
// keys so repeated production of the same episode overwrites in place.
type ObjectStore struct {
	client   *minio.Client
	endpoint string
	bucket   string
	useSSL   bool
	logger   *slog.Logger
}

func NewObjectStore(endpoint string, accessKey string, secretKey string, bucket string, useSSL bool, logger *slog.Logger) (*ObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &ObjectStore{
		client:   client,
		endpoint: endpoint,
		bucket:   bucket,
		useSSL:   useSSL,
		logger:   logger,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *ObjectStore) Put(ctx context.Context, key string, contentType string, body io.Reader, size int64) (entities.StoredObject, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return entities.StoredObject{}, fmt.Errorf("put object %s: %w", key, err)
	}
	if s.logger != nil {
		s.logger.Info("media object stored",
			"event", "object_store_put",
			"module", "production/series-production",
			"layer", "adapter",
			"key", key,
			"bytes", size,
		)
	}
	return entities.StoredObject{Key: key, URL: s.URLFor(key)}, nil
}

func (s *ObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return object, nil
}

func (s *ObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		var response minio.ErrorResponse
		if errors.As(err, &response) && response.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", key, err)
	}
	return true, nil
}

func (s *ObjectStore) URLFor(key string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, key)
}
