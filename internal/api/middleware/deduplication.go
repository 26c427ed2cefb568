package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"souschef/internal/api/handlers"
	"souschef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dedupCleanupInterval = time.Minute

// ErrDuplicateRequest 相同請求仍在去重時間窗內
var ErrDuplicateRequest = common.NewError(common.ErrCodeTooManyRequests, "Duplicate request, please wait", http.StatusTooManyRequests, nil)

// Deduplicator 以「用戶端 + 路徑 + 請求體」指紋抑制短時間內的重複提交
type Deduplicator struct {
	window   time.Duration
	mu       sync.Mutex
	requests map[string]time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewDeduplicator 創建去重器並啟動清理 goroutine
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	d := &Deduplicator{
		window:   window,
		requests: make(map[string]time.Time),
		stop:     make(chan struct{}),
	}
	go d.cleanup()
	return d
}

func (d *Deduplicator) cleanup() {
	ticker := time.NewTicker(dedupCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			d.mu.Lock()
			for k, t := range d.requests {
				if now.Sub(t) > d.window {
					delete(d.requests, k)
				}
			}
			d.mu.Unlock()
		case <-d.stop:
			return
		}
	}
}

// Close 停止清理 goroutine
func (d *Deduplicator) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// seen 記錄指紋，時間窗內已出現過時返回 true
func (d *Deduplicator) seen(fingerprint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

// forget 請求失敗時移除指紋，讓用戶端可以立即重試
func (d *Deduplicator) forget(fingerprint string) {
	d.mu.Lock()
	delete(d.requests, fingerprint)
	d.mu.Unlock()
}

// Middleware 請求去重中間件，只處理 POST
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		hasher := sha256.New()
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				handlers.Fail(c, handlers.BindError(err))
				return
			}
			hasher.Write(body)

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		// 生成請求指紋
		fingerprint := c.ClientIP() + ":" + c.Request.URL.Path + ":" + hex.EncodeToString(hasher.Sum(nil))
		if owner := handlers.Owner(c); owner != nil {
			fingerprint = *owner + ":" + fingerprint
		}

		if d.seen(fingerprint, time.Now()) {
			common.LogInfo("Duplicate request suppressed",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", handlers.RequestID(c)),
			)
			handlers.Fail(c, ErrDuplicateRequest)
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			d.forget(fingerprint)
		}
	}
}
