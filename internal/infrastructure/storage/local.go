package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local 將檔案寫入本機目錄，由 /uploads 靜態路由提供
type Local struct {
	dir        string
	publicPath string
}

// NewLocal 創建本機儲存並確保目錄存在
func NewLocal(dir, publicPath string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &Local{
		dir:        dir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
	}, nil
}

// Dir 上傳目錄
func (l *Local) Dir() string {
	return l.dir
}

// Save 寫入檔案
func (l *Local) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	base, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(l.dir, base), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return l.publicPath + "/" + base, nil
}
