package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"souschef/internal/core/ai/provider"
	"souschef/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrClosed 隊列已關閉
var ErrClosed = errors.New("queue manager is closed")

// Handler 處理一個 AI 請求
type Handler func(ctx context.Context, req *provider.Request) (*provider.Response, error)

// Request 隊列請求
type Request struct {
	Context context.Context
	Request *provider.Request
	Result  chan Result
}

// Result 處理結果
type Result struct {
	Response *provider.Response
	Error    error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 有界的 AI 請求隊列與固定數量的 worker
type Manager struct {
	queue     chan *Request
	workers   int
	maxSize   int
	processed atomic.Int64
	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
}

// NewManager 創建新的隊列管理器
func NewManager(workers, maxSize int) *Manager {
	return &Manager{
		queue:   make(chan *Request, maxSize),
		workers: workers,
		maxSize: maxSize,
	}
}

// Start 啟動 worker
func (m *Manager) Start(handler Handler) {
	for i := 0; i < m.workers; i++ {
		m.wg.Add(1)
		go func(id int) {
			defer m.wg.Done()
			for req := range m.queue {
				if err := req.Context.Err(); err != nil {
					req.Result <- Result{Error: err}
					continue
				}
				resp, err := handler(req.Context, req.Request)
				m.processed.Add(1)
				req.Result <- Result{Response: resp, Error: err}
			}
			common.LogDebug("AI worker stopped", zap.Int("worker", id))
		}(i)
	}
	common.LogInfo("AI 請求隊列已啟動",
		zap.Int("workers", m.workers),
		zap.Int("max_queue_size", m.maxSize),
	)
}

// Enqueue 將請求加入隊列，隊列已滿時立即返回 common.ErrQueueFull
func (m *Manager) Enqueue(ctx context.Context, req *provider.Request) (<-chan Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	queueReq := &Request{
		Context: ctx,
		Request: req,
		Result:  make(chan Result, 1),
	}

	select {
	case m.queue <- queueReq:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
		return queueReq.Result, nil
	default:
		return nil, common.ErrQueueFull
	}
}

// Submit 加入隊列並等待結果
func (m *Manager) Submit(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	resultCh, err := m.Enqueue(ctx, req)
	if err != nil {
		return nil, err
	}
	select {
	case res := <-resultCh:
		return res.Response, res.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: m.processed.Load(),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 停止接受請求並等待 worker 處理完剩餘請求
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()

	m.wg.Wait()
}
