package middleware

import (
	"fmt"
	"math"
	"sync"
	"time"

	"souschef/internal/api/handlers"
	"souschef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

// RateLimiter 每個用戶端一個令牌桶，閒置的用戶端會被淘汰
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	window   time.Duration
	limiters *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter 創建限流器，window 內最多 requests 次並允許 burst 次突發
func NewRateLimiter(requests int, window time.Duration, burst int) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if requests <= 0 {
		requests = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    burst,
		window:   window,
		limiters: expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, 2*window),
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters.Add(key, l)
	return l
}

// Allow 檢查用戶端是否仍有可用令牌
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiterFor(key).Allow()
}

// retryAfter 下一個令牌可用前需等待的秒數
func (rl *RateLimiter) retryAfter() int {
	if rl.limit <= 0 {
		return int(rl.window.Seconds())
	}
	return int(math.Ceil(1 / float64(rl.limit)))
}

// Middleware 限流中間件，已登入使用者以 ID 計算，否則以 IP 計算
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if owner := handlers.Owner(c); owner != nil {
			key = "user:" + *owner
		}

		if !rl.Allow(key) {
			common.LogInfo("Rate limit exceeded",
				zap.String("client", key),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", rl.retryAfter()))
			handlers.Fail(c, common.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
