package infra

import (
	"bytes"
	"context"
	"fmt"

	"erppsi/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// EspejoMinio mirrors signed contract artifacts to an S3-compatible bucket.
type EspejoMinio struct {
	client *minio.Client
	bucket string
}

// NewEspejoMinio returns nil (mirror disabled) when MINIO_ENDPOINT is empty.
func NewEspejoMinio(cfg *config.Config) (*EspejoMinio, error) {
	if cfg.MinioEndpoint == "" {
		return nil, nil
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}
	return &EspejoMinio{client: client, bucket: cfg.MinioBucket}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (m *EspejoMinio) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("minio: check bucket: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("minio: create bucket: %w", err)
		}
	}
	return nil
}

// Subir uploads a PDF under objeto, tagging it with the artifact hash.
func (m *EspejoMinio) Subir(ctx context.Context, objeto string, pdf []byte, sha256 string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objeto, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType:  "application/pdf",
		UserMetadata: map[string]string{"sha256": sha256},
	})
	if err != nil {
		return fmt.Errorf("minio: upload %s: %w", objeto, err)
	}
	return nil
}
