package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"souschef/internal/api/handlers"
	"souschef/internal/core/ai/queue"
	"souschef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const pingTimeout = 3 * time.Second

// Pinger 可檢查連線的依賴
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueReporter 提供 AI 隊列狀態
type QueueReporter interface {
	QueueStatus() *queue.Status
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Storage   string                 `json:"storage"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version     string
	storageKind string
	store       Pinger
	queue       QueueReporter
}

// NewHandler 創建健康檢查處理器
func NewHandler(version, storageKind string, store Pinger, q QueueReporter) *Handler {
	return &Handler{
		version:     version,
		storageKind: storageKind,
		store:       store,
		queue:       q,
	}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Storage:   h.storageKind,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		response.Queue = h.queue.QueueStatus()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	handlers.Success(c, http.StatusOK, common.MsgOK, response)
}

// ReadinessCheck 就緒檢查，確認資料儲存可用
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			handlers.Fail(c, common.ErrServiceUnavailable.Wrap(err))
			return
		}
	}
	handlers.Success(c, http.StatusOK, common.MsgOK, gin.H{"status": "ready"})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	handlers.Success(c, http.StatusOK, common.MsgOK, gin.H{"status": "alive"})
}
