package messaging

import (
	"context"
	"fmt"
	"strings"

	"souschef/internal/core/grocery"
	"souschef/internal/infrastructure/config"
	"souschef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var _ grocery.Sender = (*CallMeBot)(nil)

// CallMeBot 透過 CallMeBot 的 WhatsApp API 發送訊息
type CallMeBot struct {
	client *resty.Client
	apiKey string
}

// NewCallMeBot 創建 WhatsApp 發送客戶端
func NewCallMeBot(cfg config.WhatsAppConfig) *CallMeBot {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &CallMeBot{
		client: client,
		apiKey: strings.TrimSpace(cfg.APIKey),
	}
}

// Configured 是否已設定 API key
func (c *CallMeBot) Configured() bool {
	return c.apiKey != ""
}

// Send 發送訊息
//
// CallMeBot 在部分錯誤時仍回傳 200，需檢查內容。
func (c *CallMeBot) Send(ctx context.Context, phone, text string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"phone":  phone,
			"text":   text,
			"apikey": c.apiKey,
		}).
		Get("/whatsapp.php")
	if err != nil {
		return fmt.Errorf("failed to call messaging gateway: %w", err)
	}

	body := resp.String()
	if resp.IsError() {
		return fmt.Errorf("messaging gateway returned status %d: %s", resp.StatusCode(), common.Truncate(body, 200))
	}
	lower := strings.ToLower(body)
	if strings.Contains(lower, "apikey is invalid") || strings.Contains(lower, "error") {
		return fmt.Errorf("messaging gateway rejected message: %s", common.Truncate(body, 200))
	}

	common.LogDebug("WhatsApp 訊息已送出", zap.Int("status", resp.StatusCode()))
	return nil
}
