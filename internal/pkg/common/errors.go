package common

import (
	"errors"
	"net/http"
)

// ErrorBody 定義 API 錯誤響應結構
type ErrorBody struct {
	Code       string `json:"code"`              // 錯誤代碼
	Message    string `json:"message"`           // 錯誤信息
	StatusCode int    `json:"status_code"`       // HTTP 狀態碼
	Details    string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 返回原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比較，讓 Wrap 出來的錯誤仍能對應預定義錯誤
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap 以相同代碼與訊息包裝原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
	}
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	Field   string
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ToErrorBody 將任意錯誤轉換為統一的錯誤響應
func ToErrorBody(err error, debug bool) ErrorBody {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ErrorBody{
			Code:       ErrCodeInvalidRequest,
			Message:    ve.message,
			StatusCode: http.StatusBadRequest,
		}
	}

	var ce *CustomError
	if errors.As(err, &ce) {
		body := ErrorBody{
			Code:       ce.Code,
			Message:    ce.Message,
			StatusCode: ce.Status,
		}
		if debug && ce.Err != nil {
			body.Details = ce.Err.Error()
		}
		return body
	}

	body := ErrorBody{
		Code:       ErrCodeInternalError,
		Message:    ErrInternalError.Message,
		StatusCode: http.StatusInternalServerError,
	}
	if debug && err != nil {
		body.Details = err.Error()
	}
	return body
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"      // 401
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeConflict        = "CONFLICT"          // 409
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeBadGateway         = "BAD_GATEWAY"         // 502
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest, nil)
	ErrInvalidURL      = NewError("INVALID_URL", "Invalid URL provided", http.StatusBadRequest, nil)
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "User not authenticated", http.StatusUnauthorized, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrRequestTimeout  = NewError(ErrCodeRequestTimeout, "Request timed out", http.StatusRequestTimeout, nil)
	ErrConflict        = NewError(ErrCodeConflict, "Duplicate request in progress", http.StatusConflict, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)
	ErrPayloadTooLarge = NewError("PAYLOAD_TOO_LARGE", "Request body too large", http.StatusRequestEntityTooLarge, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)

	// 業務錯誤
	ErrRecipeNotFound     = NewError("RECIPE_NOT_FOUND", "Recipe not found", http.StatusNotFound, nil)
	ErrListNotFound       = NewError("LIST_NOT_FOUND", "Grocery list not found", http.StatusNotFound, nil)
	ErrItemNotFound       = NewError("ITEM_NOT_FOUND", "Grocery item not found", http.StatusNotFound, nil)
	ErrMasterListDelete   = NewError("MASTER_LIST_DELETE", "Master grocery list cannot be deleted", http.StatusBadRequest, nil)
	ErrExtractionFailed   = NewError("EXTRACTION_FAILED", "Failed to extract recipe from URL", http.StatusBadGateway, nil)
	ErrAIServiceError     = NewError("AI_SERVICE_ERROR", "AI service error", http.StatusBadGateway, nil)
	ErrGroceryUpdate      = NewError("GROCERY_UPDATE_FAILED", "Failed to update grocery list", http.StatusInternalServerError, nil)
	ErrRecipeSave         = NewError("RECIPE_SAVE_FAILED", "Failed to save recipe", http.StatusInternalServerError, nil)
	ErrShareFailed        = NewError("SHARE_FAILED", "Failed to share grocery list", http.StatusBadGateway, nil)
	ErrShareNotConfigured = NewError("SHARE_NOT_CONFIGURED", "Messaging gateway not configured", http.StatusServiceUnavailable, nil)
	ErrQueueFull          = NewError("QUEUE_FULL", "AI request queue is full", http.StatusServiceUnavailable, nil)
	ErrCacheMiss          = NewError("CACHE_MISS", "Cache miss", http.StatusNotFound, nil)
	ErrCacheDisabled      = NewError("CACHE_DISABLED", "Cache disabled", http.StatusServiceUnavailable, nil)
	ErrInvalidImageFormat = NewError("INVALID_IMAGE_FORMAT", "Invalid image format", http.StatusBadRequest, nil)
)
