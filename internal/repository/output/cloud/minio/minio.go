package minio

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"photo-watermark/internal/config"
	"photo-watermark/internal/repository/output"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// ObjectStore uploads exported images to a MinIO bucket.
type ObjectStore struct {
	client  *minio.Client
	bucket  string
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewObjectStore(ctx context.Context, cfg config.MinIOConfig, retries retry.Strategy, logger *zlog.Zerolog) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	s := &ObjectStore{client: client, bucket: cfg.Bucket, retries: retries, logger: logger}
	if s.logger == nil {
		s.logger = &zlog.Logger
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	return retry.Do(func() error {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			return fmt.Errorf("%w: %v", output.ErrBucketUnavailable, err)
		}
		if exists {
			return nil
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: failed to create bucket %s: %v", output.ErrBucketUnavailable, s.bucket, err)
		}
		s.logger.Info().Str("bucket", s.bucket).Msg("Bucket created")
		return nil
	}, s.retries)
}

func (s *ObjectStore) Location(name string) string {
	return "s3://" + s.bucket + "/" + objectKey(name)
}

func (s *ObjectStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := objectKey(name)
	if key == "" {
		return "", fmt.Errorf("%w: empty object key", output.ErrStorageValidation)
	}

	err := retry.Do(func() error {
		_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		return err
	}, s.retries)
	if err != nil {
		s.logger.Error().Err(err).Str("bucket", s.bucket).Str("key", key).Msg("Failed to upload export")
		return "", fmt.Errorf("%w: failed to upload %s: %v", output.ErrStorageError, key, err)
	}

	s.logger.Debug().Str("bucket", s.bucket).Str("key", key).Int("size", len(data)).Msg("Export uploaded")
	return s.Location(name), nil
}

// objectKey turns a local-style relative or absolute path into a bucket key.
func objectKey(name string) string {
	key := strings.ReplaceAll(name, "\\", "/")
	key = path.Clean("/" + key)
	return strings.TrimPrefix(key, "/")
}
