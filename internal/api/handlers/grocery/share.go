package grocery

import (
	"net/http"

	"souschef/internal/api/handlers"
	groceryService "souschef/internal/core/grocery"
	"souschef/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// ShareListRequest 分享單一清單
type ShareListRequest struct {
	groceryService.ShareList
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,e164"`
}

// ShareListsRequest 分享多個清單
type ShareListsRequest struct {
	Lists       []groceryService.ShareList `json:"lists" binding:"required,min=1,dive"`
	PhoneNumber string                     `json:"phoneNumber" binding:"omitempty,e164"`
}

// ShareHandler 分享處理程序
type ShareHandler struct {
	share *groceryService.ShareService
}

// NewShareHandler 創建分享處理程序
func NewShareHandler(share *groceryService.ShareService) *ShareHandler {
	return &ShareHandler{share: share}
}

// HandleShareList 透過 WhatsApp 分享單一清單
func (h *ShareHandler) HandleShareList(c *gin.Context) {
	var req ShareListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}
	if err := h.share.ShareList(c.Request.Context(), handlers.Owner(c), req.PhoneNumber, req.ShareList); err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgListShared, nil)
}

// HandleShareLists 透過 WhatsApp 分享多個清單
func (h *ShareHandler) HandleShareLists(c *gin.Context) {
	var req ShareListsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}
	if err := h.share.ShareLists(c.Request.Context(), handlers.Owner(c), req.PhoneNumber, req.Lists); err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgListsShared, nil)
}
