package common

// Envelope 統一的 API 響應信封
//
// 成功時 Success 為 true 並帶有 Data；失敗時 Success 為 false 並帶有 Error。
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// OK 創建成功響應
func OK(message string, data interface{}) Envelope {
	return Envelope{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// Fail 創建失敗響應
func Fail(body ErrorBody) Envelope {
	return Envelope{
		Success: false,
		Message: body.Message,
		Error:   &body,
	}
}

// 響應訊息
const (
	MsgRecipeExtracted = "Recipe extracted successfully"
	MsgRecipeSaved     = "Recipe saved successfully"
	MsgRecipeDeleted   = "Recipe deleted successfully"
	MsgRecipesFetched  = "Recipes retrieved successfully"
	MsgListShared      = "Grocery list shared successfully"
	MsgListsShared     = "Grocery lists shared successfully"
	MsgListUpdated     = "Grocery list updated successfully"
	MsgListDeleted     = "Grocery list deleted successfully"
	MsgItemDeleted     = "Grocery item deleted successfully"
	MsgOK              = "OK"
)
