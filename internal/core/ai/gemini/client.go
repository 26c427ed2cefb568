package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"souschef/internal/core/ai/provider"
	"souschef/internal/infrastructure/config"

	"google.golang.org/genai"
)

var _ provider.Provider = (*Client)(nil)

// Client Gemini API 客戶端
type Client struct {
	cli     *genai.Client
	model   string
	timeout time.Duration
}

// NewClient 創建 Gemini 客戶端
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{
		cli:     cli,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Generate 將對話訊息合併為單一內容後呼叫 GenerateContent
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	parts := make([]*genai.Part, 0, len(req.Messages))
	for _, msg := range req.Messages {
		parts = append(parts, &genai.Part{Text: msg.Content})
	}

	genCfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		genCfg.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSONMode {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Role: "user", Parts: parts}},
		genCfg,
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return nil, fmt.Errorf("empty gemini response")
	}

	return &provider.Response{
		Content: content,
		Model:   c.model,
	}, nil
}

// GetModel 獲取模型名稱
func (c *Client) GetModel() string {
	return c.model
}

// GetTimeout 獲取請求超時時間
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// Close 關閉客戶端
func (c *Client) Close() error {
	return nil
}
