package service

import (
	"context"
	"errors"
	"time"

	"souschef/internal/core/ai/cache"
	"souschef/internal/core/ai/provider"
	"souschef/internal/core/ai/queue"
	"souschef/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Response AI 回應內容
type Response struct {
	Content  string
	Model    string
	CacheHit bool
}

// Options AI 服務參數
type Options struct {
	Temperature       float64
	MaxTokens         int
	RequestsPerMinute int
}

// Service AI 服務：快取、限速並透過隊列呼叫提供者
type Service struct {
	provider provider.Provider
	cache    cache.Store
	queue    *queue.Manager
	limiter  *rate.Limiter
	opts     Options
}

// NewService 創建 AI 服務並啟動隊列 worker；cacheStore 可為 nil
func NewService(p provider.Provider, cacheStore cache.Store, q *queue.Manager, opts Options) *Service {
	limit := rate.Inf
	burst := 1
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60.0)
		burst = max(1, opts.RequestsPerMinute/10)
	}

	s := &Service{
		provider: p,
		cache:    cacheStore,
		queue:    q,
		limiter:  rate.NewLimiter(limit, burst),
		opts:     opts,
	}
	q.Start(s.generate)
	return s
}

// ProcessRequest 統一對外方法
func (s *Service) ProcessRequest(ctx context.Context, prompt string) (*Response, error) {
	model := s.provider.GetModel()
	key := cache.Key("ai", model, cache.NormalizePrompt(prompt))

	if s.cache != nil {
		if val, err := s.cache.Get(ctx, key); err == nil && val != "" {
			return &Response{Content: val, Model: model, CacheHit: true}, nil
		} else if err != nil && !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取 AI 快取失敗", zap.Error(err))
		}
	}

	req := provider.UserPrompt(prompt, s.opts.MaxTokens, s.opts.Temperature)
	resp, err := s.queue.Submit(ctx, req)
	if err != nil {
		if errors.Is(err, common.ErrQueueFull) {
			return nil, err
		}
		return nil, common.ErrAIServiceError.Wrap(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp.Content); err != nil {
			common.LogWarn("寫入 AI 快取失敗", zap.Error(err))
		}
	}

	return &Response{Content: resp.Content, Model: resp.Model}, nil
}

// generate 由隊列 worker 呼叫：等待限速後呼叫提供者
func (s *Service) generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	timeout := s.provider.GetTimeout()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.provider.Generate(ctx, req)
	common.LogAICall(s.provider.GetModel(), time.Since(start), err)
	return resp, err
}

// QueueStatus 返回隊列狀態
func (s *Service) QueueStatus() *queue.Status {
	return s.queue.GetQueueStatus()
}

// Close 關閉隊列與提供者
func (s *Service) Close() error {
	s.queue.Close()
	if s.cache != nil {
		_ = s.cache.Close()
	}
	return s.provider.Close()
}
