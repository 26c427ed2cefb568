package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"souschef/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const ownerKey = "owner_id"

// SetOwner 記錄請求的擁有者，nil 表示訪客範圍
func SetOwner(c *gin.Context, ownerID *string) {
	c.Set(ownerKey, ownerID)
}

// Owner 取出請求的擁有者
func Owner(c *gin.Context) *string {
	v, ok := c.Get(ownerKey)
	if !ok {
		return nil
	}
	owner, _ := v.(*string)
	return owner
}

// RequestID 取得請求 ID
func RequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success 以統一信封返回資料
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, common.OK(message, data))
}

// Fail 將錯誤轉為統一的錯誤信封並中止請求
func Fail(c *gin.Context, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		err = common.ErrRequestTimeout.Wrap(err)
	}

	body := common.ToErrorBody(err, gin.IsDebugging())
	fields := []zap.Field{
		zap.String("request_id", RequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.String("code", body.Code),
		zap.Error(err),
	}
	if body.StatusCode >= http.StatusInternalServerError {
		common.LogError("請求失敗", fields...)
	} else {
		common.LogWarn("請求被拒絕", fields...)
	}

	c.AbortWithStatusJSON(body.StatusCode, common.Fail(body))
}

// BindError 將綁定錯誤轉為驗證錯誤，訊息指出第一個不合格的欄位
func BindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return common.NewValidationError(fe.Field(), fieldMessage(fe))
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return common.ErrPayloadTooLarge.Wrap(err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		return common.NewValidationError(typeErr.Field, fmt.Sprintf("%s has the wrong type", typeErr.Field))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return common.NewValidationError("body", "Invalid request body")
	}
	return common.NewValidationError("body", "Invalid request format")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "e164":
		return fmt.Sprintf("%s must be an E.164 phone number", fe.Field())
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid ID", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
