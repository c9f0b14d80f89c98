// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pdiddy/doc2md/pkg/types"
)

// MarkdownContentType is stored with every uploaded object.
const MarkdownContentType = "text/markdown; charset=utf-8"

// objectStore is the part of *minio.Client the sink uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Minio uploads markdown to an S3-compatible object store. Buckets are
// created on first use.
type Minio struct {
	client objectStore

	mu      sync.Mutex
	buckets map[string]bool
}

// NewMinio connects to the endpoint in cfg.
func NewMinio(cfg types.MinioConfig) (*Minio, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return newMinio(client), nil
}

func newMinio(client objectStore) *Minio {
	return &Minio{client: client, buckets: make(map[string]bool)}
}

// Write implements Sink for s3://bucket/key paths.
func (m *Minio) Write(ctx context.Context, path string, content []byte) error {
	bucket, key, err := ParseURL(path)
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("%s: missing object name", path)
	}
	if err := m.ensureBucket(ctx, bucket); err != nil {
		return err
	}
	_, err = m.client.PutObject(ctx, bucket, key, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: MarkdownContentType})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", path, err)
	}
	return nil
}

func (m *Minio) ensureBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buckets[bucket] {
		return nil
	}
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", bucket, err)
		}
	}
	m.buckets[bucket] = true
	return nil
}
