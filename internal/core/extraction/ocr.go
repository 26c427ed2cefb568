package extraction

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"souschef/internal/infrastructure/config"
)

// OCREngine 從 PNG 圖片辨識文字
type OCREngine interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}

// PageRasterizer 將 PDF 每一頁轉為 PNG
type PageRasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([][]byte, error)
}

// Tesseract 呼叫 tesseract 命令列
type Tesseract struct {
	path      string
	languages string
	timeout   time.Duration
}

// NewTesseract 創建 Tesseract 引擎
func NewTesseract(cfg config.OCRConfig) *Tesseract {
	return &Tesseract{
		path:      cfg.TesseractPath,
		languages: cfg.Languages,
		timeout:   cfg.Timeout,
	}
}

// Recognize 以 --oem 3 --psm 6 辨識，圖片由 stdin 傳入
func (t *Tesseract) Recognize(ctx context.Context, png []byte) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	args := []string{"stdin", "stdout", "--oem", "3", "--psm", "6"}
	if t.languages != "" {
		args = append(args, "-l", t.languages)
	}

	cmd := exec.CommandContext(ctx, t.path, args...)
	cmd.Stdin = bytes.NewReader(png)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Pdftoppm 以 poppler 的 pdftoppm 轉換頁面
type Pdftoppm struct {
	path    string
	timeout time.Duration
}

// NewPdftoppm 創建 PDF 頁面轉換器
func NewPdftoppm(cfg config.OCRConfig) *Pdftoppm {
	return &Pdftoppm{path: cfg.PdftoppmPath, timeout: cfg.Timeout}
}

// Rasterize 以 150 DPI 輸出 PNG，依頁碼排序
func (p *Pdftoppm) Rasterize(ctx context.Context, pdf []byte) ([][]byte, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "souschef-pdf-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.path, "-png", "-r", "150", input, filepath.Join(dir, "page"))
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	files, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return nil, err
	}
	// pdftoppm 依頁數補零，字典序即頁序
	sort.Strings(files)

	pages := make([][]byte, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read page image: %w", err)
		}
		pages = append(pages, data)
	}
	return pages, nil
}
