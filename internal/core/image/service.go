package image

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"path/filepath"
	"strings"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG

	"souschef/internal/infrastructure/config"
	"souschef/internal/pkg/common"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"  // 支援 BMP
	_ "golang.org/x/image/tiff" // 支援 TIFF
	_ "golang.org/x/image/webp" // 支援 WebP
)

// allowedExtensions 可上傳的圖片副檔名
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// Upload 一個上傳的圖片檔
type Upload struct {
	Filename string
	Data     []byte
}

// Service 圖片驗證與 OCR 前處理
type Service struct {
	maxSizeBytes int64
	maxCount     int
	maxDimension uint
}

// NewService 創建新的圖片處理服務
func NewService(cfg config.ImageConfig) *Service {
	return &Service{
		maxSizeBytes: cfg.MaxSizeBytes,
		maxCount:     cfg.MaxCount,
		maxDimension: uint(cfg.MaxDimension),
	}
}

// ContentType 依副檔名返回 MIME 類型，不支援時返回空字串
func ContentType(filename string) string {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ValidateBatch 檢查上傳數量與每個檔案
func (s *Service) ValidateBatch(uploads []Upload) error {
	if len(uploads) == 0 {
		return common.NewValidationError("images", "No images provided")
	}
	if len(uploads) > s.maxCount {
		return common.NewValidationError("images", fmt.Sprintf("Too many images (max %d)", s.maxCount))
	}
	for _, u := range uploads {
		if err := s.Validate(u.Filename, int64(len(u.Data))); err != nil {
			return err
		}
	}
	return nil
}

// Validate 檢查副檔名與大小
func (s *Service) Validate(filename string, size int64) error {
	if ContentType(filename) == "" {
		return common.NewValidationError("images", fmt.Sprintf("Unsupported image type: %s", filename))
	}
	if size == 0 {
		return common.NewValidationError("images", fmt.Sprintf("Empty image: %s", filename))
	}
	if size > s.maxSizeBytes {
		return common.NewValidationError("images", fmt.Sprintf("Image %s exceeds maximum size of %d MB", filename, s.maxSizeBytes/(1024*1024)))
	}
	return nil
}

// PrepareForOCR 解碼圖片、去除透明度、縮小過大的圖片並輸出 PNG
func (s *Service) PrepareForOCR(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.ErrInvalidImageFormat.Wrap(err)
	}

	img = flatten(img)

	b := img.Bounds()
	if s.maxDimension > 0 && (uint(b.Dx()) > s.maxDimension || uint(b.Dy()) > s.maxDimension) {
		img = resize.Thumbnail(s.maxDimension, s.maxDimension, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// flatten 將圖片繪製到白色背景上
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
