package grocery

import (
	"context"
	"errors"
	"strings"
	"time"

	"souschef/internal/core/recipe"
	"souschef/internal/pkg/common"

	"go.uber.org/zap"
)

// RecipeSource 取得食譜（含食材）
type RecipeSource interface {
	Get(ctx context.Context, ownerID *string, id string) (*recipe.Recipe, error)
}

// Metrics 聚合結果的統計回呼
type Metrics interface {
	ItemsMerged(n int)
	ItemsInserted(n int)
}

// ItemInput 手動新增的項目
type ItemInput struct {
	Name     string  `json:"name" binding:"required,notblank,max=200"`
	Quantity string  `json:"quantity" binding:"max=100"`
	Unit     *string `json:"unit" binding:"omitempty,max=50"`
}

// ItemPatch 項目部分更新，nil 欄位保持不變
type ItemPatch struct {
	Name      *string `json:"name" binding:"omitempty,notblank,max=200"`
	Quantity  *string `json:"quantity" binding:"omitempty,max=100"`
	Unit      *string `json:"unit" binding:"omitempty,max=50"`
	Completed *bool   `json:"completed"`
}

// Service 購物清單服務
type Service struct {
	store   Store
	recipes RecipeSource
	metrics Metrics
}

// NewService 創建新的購物清單服務
func NewService(store Store, recipes RecipeSource, metrics Metrics) *Service {
	return &Service{
		store:   store,
		recipes: recipes,
		metrics: metrics,
	}
}

// ListLists 列出擁有者範圍內的清單，主清單不存在時先建立
func (s *Service) ListLists(ctx context.Context, ownerID *string) ([]*List, error) {
	if _, err := s.store.GetOrCreateMasterList(ctx, ownerID); err != nil {
		return nil, common.ErrGroceryUpdate.Wrap(err)
	}
	lists, err := s.store.ListLists(ctx, ownerID)
	if err != nil {
		return nil, common.ErrInternalError.Wrap(err)
	}
	return lists, nil
}

// MasterList 取得（必要時建立）主清單
func (s *Service) MasterList(ctx context.Context, ownerID *string) (*List, error) {
	master, err := s.store.GetOrCreateMasterList(ctx, ownerID)
	if err != nil {
		return nil, common.ErrGroceryUpdate.Wrap(err)
	}
	return s.store.GetList(ctx, master.ID)
}

// CreateList 建立新清單
func (s *Service) CreateList(ctx context.Context, ownerID *string, name string) (*List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.NewValidationError("name", "List name is required")
	}
	l := &List{
		ID:        common.GenerateUUID(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Items:     []Item{},
	}
	if err := s.store.CreateList(ctx, l); err != nil {
		return nil, common.ErrGroceryUpdate.Wrap(err)
	}
	return l, nil
}

// GetList 取得擁有者範圍內的清單
func (s *Service) GetList(ctx context.Context, ownerID *string, id string) (*List, error) {
	if !common.IsUUID(id) {
		return nil, common.ErrListNotFound
	}
	l, err := s.store.GetList(ctx, id)
	if err != nil {
		return nil, err
	}
	if !common.SameOwner(l.OwnerID, ownerID) {
		return nil, common.ErrListNotFound
	}
	return l, nil
}

// RenameList 重新命名清單
func (s *Service) RenameList(ctx context.Context, ownerID *string, id, name string) (*List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.NewValidationError("name", "List name is required")
	}
	if _, err := s.GetList(ctx, ownerID, id); err != nil {
		return nil, err
	}
	if err := s.store.RenameList(ctx, id, name); err != nil {
		return nil, common.ErrGroceryUpdate.Wrap(err)
	}
	return s.store.GetList(ctx, id)
}

// DeleteList 刪除清單，主清單不可刪除
func (s *Service) DeleteList(ctx context.Context, ownerID *string, id string) error {
	l, err := s.GetList(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if l.IsMaster {
		return common.ErrMasterListDelete
	}
	if err := s.store.DeleteList(ctx, id); err != nil {
		return common.ErrGroceryUpdate.Wrap(err)
	}
	return nil
}

// AddRecipeToList 將食譜的食材聚合到清單，listID 為空時使用主清單
func (s *Service) AddRecipeToList(ctx context.Context, ownerID *string, listID, recipeID string) (*List, error) {
	r, err := s.recipes.Get(ctx, ownerID, recipeID)
	if err != nil {
		return nil, err
	}
	title := r.Title
	return s.AddIngredients(ctx, ownerID, listID, r.Ingredients, &r.ID, &title)
}

// AddItem 手動新增項目，與既有項目相同者合併數量
func (s *Service) AddItem(ctx context.Context, ownerID *string, listID string, in ItemInput) (*List, error) {
	ing := recipe.Ingredient{
		Name:     strings.TrimSpace(in.Name),
		Quantity: strings.TrimSpace(in.Quantity),
		Unit:     common.StringPtr(common.Deref(in.Unit)),
	}
	if ing.Name == "" {
		return nil, common.NewValidationError("name", "Item name is required")
	}
	return s.AddIngredients(ctx, ownerID, listID, []recipe.Ingredient{ing}, nil, nil)
}

// AddIngredients 以原子操作把食材聚合進清單並返回最新清單
func (s *Service) AddIngredients(ctx context.Context, ownerID *string, listID string, incoming []recipe.Ingredient, recipeID, recipeTitle *string) (*List, error) {
	target, err := s.resolveList(ctx, ownerID, listID)
	if err != nil {
		return nil, err
	}

	plan, err := s.store.ApplyToList(ctx, target.ID, func(existing []Item) Plan {
		return Aggregate(existing, incoming, recipeID, recipeTitle)
	})
	if err != nil {
		common.LogError("聚合購物清單失敗",
			zap.String("list_id", target.ID),
			zap.Error(err),
		)
		return nil, common.ErrGroceryUpdate.Wrap(err)
	}

	if s.metrics != nil {
		s.metrics.ItemsMerged(len(plan.Updates))
		s.metrics.ItemsInserted(len(plan.Inserts))
	}
	common.LogInfo("購物清單已更新",
		zap.String("list_id", target.ID),
		zap.Int("merged", len(plan.Updates)),
		zap.Int("inserted", len(plan.Inserts)),
	)

	return s.store.GetList(ctx, target.ID)
}

func (s *Service) resolveList(ctx context.Context, ownerID *string, listID string) (*List, error) {
	if listID == "" || listID == "master" {
		master, err := s.store.GetOrCreateMasterList(ctx, ownerID)
		if err != nil {
			return nil, common.ErrGroceryUpdate.Wrap(err)
		}
		return master, nil
	}
	return s.GetList(ctx, ownerID, listID)
}

// getItem 取得擁有者範圍內的項目
func (s *Service) getItem(ctx context.Context, ownerID *string, id string) (*Item, error) {
	if !common.IsUUID(id) {
		return nil, common.ErrItemNotFound
	}
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetList(ctx, ownerID, item.ListID); err != nil {
		if errors.Is(err, common.ErrListNotFound) {
			return nil, common.ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// UpdateItem 編輯項目名稱、數量、單位或完成狀態
func (s *Service) UpdateItem(ctx context.Context, ownerID *string, id string, patch ItemPatch) (*Item, error) {
	item, err := s.getItem(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, common.NewValidationError("name", "Item name is required")
		}
		item.Name = name
	}
	if patch.Quantity != nil {
		item.Quantity = strings.TrimSpace(*patch.Quantity)
		item.QuantityNote = nil
	}
	if patch.Unit != nil {
		item.Unit = common.StringPtr(*patch.Unit)
	}
	if patch.Completed != nil {
		item.Completed = *patch.Completed
	}
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, common.ErrGroceryUpdate.Wrap(err)
	}
	return item, nil
}

// ToggleItem 切換項目的完成狀態
func (s *Service) ToggleItem(ctx context.Context, ownerID *string, id string) (*Item, error) {
	item, err := s.getItem(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	item.Completed = !item.Completed
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, common.ErrGroceryUpdate.Wrap(err)
	}
	return item, nil
}

// MoveItem 將項目移到同一擁有者範圍內的另一個清單
func (s *Service) MoveItem(ctx context.Context, ownerID *string, id, targetListID string) (*Item, error) {
	item, err := s.getItem(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	target, err := s.GetList(ctx, ownerID, targetListID)
	if err != nil {
		return nil, err
	}
	if target.ID == item.ListID {
		return item, nil
	}
	item.ListID = target.ID
	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, common.ErrGroceryUpdate.Wrap(err)
	}
	return item, nil
}

// DeleteItem 刪除單一項目
func (s *Service) DeleteItem(ctx context.Context, ownerID *string, id string) error {
	if _, err := s.getItem(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return common.ErrGroceryUpdate.Wrap(err)
	}
	return nil
}

// ClearList 刪除清單中所有項目，返回刪除數量
func (s *Service) ClearList(ctx context.Context, ownerID *string, listID string) (int64, error) {
	if _, err := s.GetList(ctx, ownerID, listID); err != nil {
		return 0, err
	}
	n, err := s.store.ClearList(ctx, listID)
	if err != nil {
		return 0, common.ErrGroceryUpdate.Wrap(err)
	}
	return n, nil
}
