package middleware

import (
	"context"
	"errors"
	"time"

	"souschef/internal/api/handlers"
	"souschef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Timeout 為請求設定截止時間，處理器逾時且尚未回應時返回逾時錯誤
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", handlers.RequestID(c)),
				zap.Duration("timeout", timeout),
			)
			handlers.Fail(c, common.ErrRequestTimeout)
		}
	}
}
