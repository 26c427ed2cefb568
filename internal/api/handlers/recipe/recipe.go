package recipe

import (
	"net/http"

	"souschef/internal/api/handlers"
	recipeService "souschef/internal/core/recipe"
	"souschef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecipesResponse 食譜列表
type RecipesResponse struct {
	Recipes      []*recipeService.Recipe `json:"recipes"`
	Count        int                     `json:"count"`
	UserSpecific bool                    `json:"user_specific"`
}

// TagsRequest 取代食譜標籤
type TagsRequest struct {
	Tags []string `json:"tags" binding:"required"`
}

// Handler 食譜處理程序
type Handler struct {
	recipes *recipeService.Service
}

// NewHandler 創建新的食譜處理程序
func NewHandler(recipes *recipeService.Service) *Handler {
	return &Handler{recipes: recipes}
}

// HandleList 列出呼叫者範圍內的食譜
func (h *Handler) HandleList(c *gin.Context) {
	owner := handlers.Owner(c)
	recipes, err := h.recipes.List(c.Request.Context(), owner)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	if recipes == nil {
		recipes = []*recipeService.Recipe{}
	}

	handlers.Success(c, http.StatusOK, common.MsgRecipesFetched, RecipesResponse{
		Recipes:      recipes,
		Count:        len(recipes),
		UserSpecific: owner != nil,
	})
}

// HandleGet 取得單一食譜
func (h *Handler) HandleGet(c *gin.Context) {
	r, err := h.recipes.Get(c.Request.Context(), handlers.Owner(c), c.Param("id"))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgOK, r)
}

// HandleUpdate 部分更新食譜
func (h *Handler) HandleUpdate(c *gin.Context) {
	var req recipeService.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}

	r, err := h.recipes.Update(c.Request.Context(), handlers.Owner(c), c.Param("id"), req)
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	common.LogInfo("食譜已更新",
		zap.String("recipe_id", r.ID),
		zap.String("request_id", handlers.RequestID(c)),
	)
	handlers.Success(c, http.StatusOK, common.MsgRecipeSaved, r)
}

// HandleSetTags 以請求內容取代標籤
func (h *Handler) HandleSetTags(c *gin.Context) {
	var req TagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Fail(c, handlers.BindError(err))
		return
	}

	r, err := h.recipes.SetTags(c.Request.Context(), handlers.Owner(c), c.Param("id"), req.Tags)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgRecipeSaved, r)
}

// HandleDelete 刪除食譜
func (h *Handler) HandleDelete(c *gin.Context) {
	id := c.Param("id")
	if err := h.recipes.Delete(c.Request.Context(), handlers.Owner(c), id); err != nil {
		handlers.Fail(c, err)
		return
	}
	handlers.Success(c, http.StatusOK, common.MsgRecipeDeleted, gin.H{"id": id})
}
