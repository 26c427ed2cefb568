package extraction

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"souschef/internal/infrastructure/config"

	"github.com/go-resty/resty/v2"
)

// PageFetcher 下載網頁 HTML
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// WebFetcher 以瀏覽器標頭抓取網頁，回應大小有上限
type WebFetcher struct {
	client   *resty.Client
	maxBytes int64
}

// NewWebFetcher 創建網頁抓取器
func NewWebFetcher(cfg config.ScraperConfig) *WebFetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetHeader("Upgrade-Insecure-Requests", "1")

	return &WebFetcher{
		client:   client,
		maxBytes: cfg.MaxContentBytes,
	}
}

// Fetch 下載頁面，非 200 或超過大小上限時返回錯誤
func (f *WebFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode())
	}

	data, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return "", fmt.Errorf("page content exceeds %d bytes", f.maxBytes)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("page content is empty")
	}
	return string(data), nil
}
