package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"souschef/internal/infrastructure/config"
)

// Storage 上傳檔案的儲存後端
type Storage interface {
	// Save 保存檔案並返回可公開存取的 URL
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// New 依設定選擇本機或 MinIO
func New(cfg config.StorageConfig) (Storage, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		l, err := NewLocal(cfg.UploadDir, cfg.PublicPath)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "minio":
		m, err := NewMinio(cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// cleanName 只保留檔名，避免路徑穿越
func cleanName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return base, nil
}
