package middleware

import (
	"souschef/internal/api/handlers"
	"souschef/internal/core/auth"
	"souschef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Auth 解析 Bearer token 並設定擁有者
//
// 沒有 Authorization 標頭時屬於訪客範圍；帶有無效 token 時返回 401。
// 未設定密鑰時所有請求都屬訪客範圍。
func Auth(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || verifier == nil || !verifier.Enabled() {
			handlers.SetOwner(c, nil)
			c.Next()
			return
		}

		token, ok := auth.BearerToken(header)
		if !ok {
			handlers.Fail(c, common.ErrUnauthorized)
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			common.LogWarn("Token 驗證失敗",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", handlers.RequestID(c)),
				zap.Error(err),
			)
			handlers.Fail(c, common.ErrUnauthorized.Wrap(err))
			return
		}

		handlers.SetOwner(c, &userID)
		c.Next()
	}
}
