package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"souschef/internal/infrastructure/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio S3 相容物件儲存
type Minio struct {
	client    *minio.Client
	bucket    string
	publicURL string
	initOnce  sync.Once
	initErr   error
}

// NewMinio 創建 MinIO 儲存，bucket 在第一次寫入時建立
func NewMinio(cfg config.StorageConfig) (*Minio, error) {
	endpoint := strings.TrimSpace(cfg.MinioEndpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.MinioBucket)
	if bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	publicURL := strings.TrimRight(cfg.MinioPublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)
	}

	return &Minio{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
	}, nil
}

func (m *Minio) ensureBucket(ctx context.Context) error {
	m.initOnce.Do(func() {
		exists, err := m.client.BucketExists(ctx, m.bucket)
		if err != nil {
			m.initErr = err
			return
		}
		if exists {
			return
		}
		m.initErr = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	})
	return m.initErr
}

// Save 上傳物件
func (m *Minio) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	key, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := m.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return m.publicURL + "/" + key, nil
}
