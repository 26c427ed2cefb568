package extraction

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"souschef/internal/pkg/common"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// minPDFText 文字層少於此長度時改用 OCR
const minPDFText = 50

// pdfTextLayer 讀取 PDF 內嵌文字，解析失敗時返回空字串
func pdfTextLayer(data []byte) (text string) {
	// 損壞的 PDF 可能讓解析器 panic
	defer func() {
		if r := recover(); r != nil {
			common.LogWarn("PDF 文字解析失敗", zap.Any("panic", r))
			text = ""
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		common.LogWarn("無法開啟 PDF", zap.Error(err))
		return ""
	}
	plain, err := r.GetPlainText()
	if err != nil {
		common.LogWarn("無法讀取 PDF 文字層", zap.Error(err))
		return ""
	}
	buf, err := io.ReadAll(plain)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(buf))
}

// pdfText 先讀文字層，內容太少時轉圖後逐頁 OCR
func (e *Extractor) pdfText(ctx context.Context, data []byte) (string, string, error) {
	if text := pdfTextLayer(data); len(text) >= minPDFText {
		return text, "text", nil
	}

	common.LogInfo("PDF 文字層內容不足，改用 OCR")
	pages, err := e.rasterizer.Rasterize(ctx, data)
	if err != nil {
		return "", "", err
	}

	var b strings.Builder
	for i, page := range pages {
		prepared, err := e.images.PrepareForOCR(page)
		if err != nil {
			return "", "", err
		}
		text, err := e.ocr.Recognize(ctx, prepared)
		if err != nil {
			return "", "", fmt.Errorf("page %d: %w", i+1, err)
		}
		fmt.Fprintf(&b, "Page %d:\n%s\n\n", i+1, text)
	}
	return strings.TrimSpace(b.String()), "ocr", nil
}
