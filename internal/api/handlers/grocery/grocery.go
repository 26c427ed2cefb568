package grocery

import (
	"net/http"

	"souschef/internal/api/handlers"
	groceryService "souschef/internal/core/grocery"
	"souschef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListRequest 建立或重新命名清單
type ListRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

// AddRecipeRequest 將食譜加入清單
type AddRecipeRequest struct {
	RecipeID string `json:"recipe_id" binding:"required,notblank"`
}

// MoveItemRequest 移動項目到另一個清單
type MoveItemRequest struct {
	ListID string `json:"list_id" binding:"required,notblank"`
}

// ListsResponse 清單列表
type ListsResponse struct {
	Lists []*groceryService.List `json:"lists"`
	Count int                    `json:"count"`
}

// Handler 購物清單處理程序
type Handler struct {
	lists *groceryService.Service
}

// NewHandler 創建購物清單處理程序
func NewHandler(lists *groceryService.Service) *Handler {
	return &Handler{lists: lists}
}

// HandleListLists 列出清單，必要時先建立主清單
func (h *Handler) HandleListLists(c *gin.Context) {
	lists, err := h.lists.ListLists(c.Request.Context(), handlers.Owner(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgOK, ListsResponse{Lists: lists, Count: len(lists)})
}

// HandleCreateList 建立清單
func (h *Handler) HandleCreateList(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}
	l, err := h.lists.CreateList(c.Request.Context(), handlers.Owner(c), req.Name)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusCreated, common.MsgListUpdated, l)
}

// HandleMasterList 取得主清單
func (h *Handler) HandleMasterList(c *gin.Context) {
	l, err := h.lists.MasterList(c.Request.Context(), handlers.Owner(c))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgOK, l)
}

// HandleGetList 取得單一清單
func (h *Handler) HandleGetList(c *gin.Context) {
	l, err := h.lists.GetList(c.Request.Context(), handlers.Owner(c), c.Param("id"))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgOK, l)
}

// HandleRenameList 重新命名清單
func (h *Handler) HandleRenameList(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}
	l, err := h.lists.RenameList(c.Request.Context(), handlers.Owner(c), c.Param("id"), req.Name)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgListUpdated, l)
}

// HandleDeleteList 刪除清單
func (h *Handler) HandleDeleteList(c *gin.Context) {
	id := c.Param("id")
	if err := h.lists.DeleteList(c.Request.Context(), handlers.Owner(c), id); err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgListDeleted, gin.H{"id": id})
}

// HandleAddRecipe 將食譜食材聚合到清單，清單 ID 為 master 時使用主清單
func (h *Handler) HandleAddRecipe(c *gin.Context) {
	var req AddRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}

	l, err := h.lists.AddRecipeToList(c.Request.Context(), handlers.Owner(c), c.Param("id"), req.RecipeID)
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	common.LogInfo("食譜已加入購物清單",
		zap.String("list_id", l.ID),
		zap.String("recipe_id", req.RecipeID),
		zap.String("request_id", handlers.RequestID(c)),
	)
	handlers.Success(c, http.StatusOK, common.MsgListUpdated, l)
}

// HandleAddItem 手動新增項目
func (h *Handler) HandleAddItem(c *gin.Context) {
	var req groceryService.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}
	l, err := h.lists.AddItem(c.Request.Context(), handlers.Owner(c), c.Param("id"), req)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgListUpdated, l)
}

// HandleClearList 清空清單
func (h *Handler) HandleClearList(c *gin.Context) {
	n, err := h.lists.ClearList(c.Request.Context(), handlers.Owner(c), c.Param("id"))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgListUpdated, gin.H{"deleted": n})
}

// HandleUpdateItem 編輯項目
func (h *Handler) HandleUpdateItem(c *gin.Context) {
	var req groceryService.ItemPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}
	item, err := h.lists.UpdateItem(c.Request.Context(), handlers.Owner(c), c.Param("id"), req)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgListUpdated, item)
}

// HandleToggleItem 切換完成狀態
func (h *Handler) HandleToggleItem(c *gin.Context) {
	item, err := h.lists.ToggleItem(c.Request.Context(), handlers.Owner(c), c.Param("id"))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgListUpdated, item)
}

// HandleMoveItem 移動項目
func (h *Handler) HandleMoveItem(c *gin.Context) {
	var req MoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}
	item, err := h.lists.MoveItem(c.Request.Context(), handlers.Owner(c), c.Param("id"), req.ListID)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgListUpdated, item)
}

// HandleDeleteItem 刪除項目
func (h *Handler) HandleDeleteItem(c *gin.Context) {
	id := c.Param("id")
	if err := h.lists.DeleteItem(c.Request.Context(), handlers.Owner(c), id); err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgItemDeleted, gin.H{"id": id})
}
