package playback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Secure    bool
	URLTTL    time.Duration
}

// S3Store keeps handles as bucket objects; URL is a presigned GET valid for URLTTL.
// Release deletes the object, which is the server-side revoke.
type S3Store struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
	prefix string
}

var _ Store = (*S3Store)(nil)

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	// проверим, что бакет существует
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	ttl := cfg.URLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &S3Store{client: client, bucket: cfg.Bucket, ttl: ttl, prefix: "playback"}, nil
}

func (s *S3Store) objectKey(key, id string) string {
	date := time.Now().Format("2006-01-02")
	return path.Join(s.prefix, date, sanitize(key)+"_"+id)
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, mimeType string) (Handle, error) {
	id := uuid.NewString()
	objKey := s.objectKey(key, id)

	_, err := s.client.PutObject(ctx, s.bucket, objKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  mimeType,
		UserMetadata: map[string]string{"uploaded-at": time.Now().Format(time.RFC3339)},
	})
	if err != nil {
		return Handle{}, fmt.Errorf("upload failed: %w", err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, objKey, s.ttl, url.Values{})
	if err != nil {
		_ = s.client.RemoveObject(ctx, s.bucket, objKey, minio.RemoveObjectOptions{})
		return Handle{}, fmt.Errorf("presign failed: %w", err)
	}

	return Handle{
		ID:        id,
		Key:       objKey,
		MIMEType:  mimeType,
		Size:      int64(len(data)),
		URL:       u.String(),
		CreatedAt: time.Now(),
	}, nil
}

func (s *S3Store) Open(ctx context.Context, h Handle) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, h.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrReleased
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

func (s *S3Store) Release(ctx context.Context, h Handle) error {
	if err := s.client.RemoveObject(ctx, s.bucket, h.Key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
