// Package memory 提供不需資料庫的記憶體儲存，用於本機開發與測試
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"souschef/internal/core/grocery"
	"souschef/internal/core/recipe"
	"souschef/internal/pkg/common"
)

var (
	_ recipe.Store  = (*Store)(nil)
	_ grocery.Store = (*Store)(nil)
)

// Store 以互斥鎖保護的記憶體儲存
type Store struct {
	mu      sync.RWMutex
	recipes map[string]*recipe.Recipe
	lists   map[string]*grocery.List
	items   map[string]*grocery.Item
}

// NewStore 創建新的記憶體儲存
func NewStore() *Store {
	return &Store{
		recipes: make(map[string]*recipe.Recipe),
		lists:   make(map[string]*grocery.List),
		items:   make(map[string]*grocery.Item),
	}
}

// Ping 記憶體儲存永遠可用
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func copyRecipe(r *recipe.Recipe) *recipe.Recipe {
	cp := *r
	cp.Tags = append([]string{}, r.Tags...)
	cp.Ingredients = append([]recipe.Ingredient{}, r.Ingredients...)
	cp.Instructions = append([]recipe.Instruction{}, r.Instructions...)
	return &cp
}

// CreateRecipe 保存食譜及其食材與步驟
func (s *Store) CreateRecipe(ctx context.Context, r *recipe.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recipes[r.ID] = copyRecipe(r)
	return nil
}

// GetRecipe 取得食譜
func (s *Store) GetRecipe(ctx context.Context, id string) (*recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		return nil, common.ErrRecipeNotFound
	}
	return copyRecipe(r), nil
}

// ListRecipes 列出擁有者範圍內的食譜，最新的在前
func (s *Store) ListRecipes(ctx context.Context, ownerID *string) ([]*recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*recipe.Recipe, 0)
	for _, r := range s.recipes {
		if common.SameOwner(r.OwnerID, ownerID) {
			out = append(out, copyRecipe(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateRecipe 更新食譜欄位，不影響食材與步驟
func (s *Store) UpdateRecipe(ctx context.Context, r *recipe.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.recipes[r.ID]
	if !ok {
		return common.ErrRecipeNotFound
	}
	updated := copyRecipe(r)
	updated.Ingredients = existing.Ingredients
	updated.Instructions = existing.Instructions
	s.recipes[r.ID] = updated
	return nil
}

// DeleteRecipe 刪除食譜，購物項目的來源欄位改為 nil
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return common.ErrRecipeNotFound
	}
	delete(s.recipes, id)
	for _, item := range s.items {
		if item.RecipeID != nil && *item.RecipeID == id {
			item.RecipeID = nil
			item.IngredientID = nil
		}
	}
	return nil
}

// ListIngredients 列出食譜的食材
func (s *Store) ListIngredients(ctx context.Context, recipeID string) ([]recipe.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[recipeID]
	if !ok {
		return []recipe.Ingredient{}, nil
	}
	return append([]recipe.Ingredient{}, r.Ingredients...), nil
}

// ListInstructions 列出食譜的步驟
func (s *Store) ListInstructions(ctx context.Context, recipeID string) ([]recipe.Instruction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[recipeID]
	if !ok {
		return []recipe.Instruction{}, nil
	}
	return append([]recipe.Instruction{}, r.Instructions...), nil
}

// CreateList 建立清單
func (s *Store) CreateList(ctx context.Context, l *grocery.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *l
	cp.Items = nil
	s.lists[l.ID] = &cp
	return nil
}

// listWithItems 呼叫者須持有鎖
func (s *Store) listWithItems(l *grocery.List) *grocery.List {
	cp := *l
	cp.Items = s.itemsOf(l.ID)
	return &cp
}

// itemsOf 呼叫者須持有鎖，項目依建立時間新到舊排序，同時間依 ID
func (s *Store) itemsOf(listID string) []grocery.Item {
	items := s.collectItems(listID)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// itemsOldestFirst 呼叫者須持有鎖，依建立時間舊到新排序，同時間依 ID
func (s *Store) itemsOldestFirst(listID string) []grocery.Item {
	items := s.collectItems(listID)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

func (s *Store) collectItems(listID string) []grocery.Item {
	items := make([]grocery.Item, 0)
	for _, item := range s.items {
		if item.ListID == listID {
			items = append(items, *item)
		}
	}
	return items
}

// GetList 取得清單及其項目
func (s *Store) GetList(ctx context.Context, id string) (*grocery.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lists[id]
	if !ok {
		return nil, common.ErrListNotFound
	}
	return s.listWithItems(l), nil
}

// ListLists 列出擁有者範圍內的清單，最新的在前
func (s *Store) ListLists(ctx context.Context, ownerID *string) ([]*grocery.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*grocery.List, 0)
	for _, l := range s.lists {
		if common.SameOwner(l.OwnerID, ownerID) {
			out = append(out, s.listWithItems(l))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetOrCreateMasterList 取得或建立主清單
func (s *Store) GetOrCreateMasterList(ctx context.Context, ownerID *string) (*grocery.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.lists {
		if l.IsMaster && common.SameOwner(l.OwnerID, ownerID) {
			return s.listWithItems(l), nil
		}
	}
	master := &grocery.List{
		ID:        common.GenerateUUID(),
		OwnerID:   ownerID,
		Name:      grocery.MasterListName,
		IsMaster:  true,
		CreatedAt: time.Now().UTC(),
	}
	s.lists[master.ID] = master
	return s.listWithItems(master), nil
}

// RenameList 重新命名清單
func (s *Store) RenameList(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[id]
	if !ok {
		return common.ErrListNotFound
	}
	l.Name = name
	return nil
}

// DeleteList 刪除清單及其項目
func (s *Store) DeleteList(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[id]; !ok {
		return common.ErrListNotFound
	}
	delete(s.lists, id)
	for itemID, item := range s.items {
		if item.ListID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

// ApplyToList 在寫鎖內完成讀取、計畫與寫入
func (s *Store) ApplyToList(ctx context.Context, listID string, build grocery.PlanFunc) (grocery.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[listID]; !ok {
		return grocery.Plan{}, common.ErrListNotFound
	}

	plan := build(s.itemsOldestFirst(listID))
	for _, u := range plan.Updates {
		item, ok := s.items[u.ID]
		if !ok || item.ListID != listID {
			return grocery.Plan{}, common.ErrItemNotFound
		}
	}

	for _, u := range plan.Updates {
		item := s.items[u.ID]
		item.Quantity = u.Quantity
		item.QuantityNote = u.QuantityNote
	}
	for _, ins := range plan.Inserts {
		item := ins
		item.ListID = listID
		s.items[item.ID] = &item
	}
	return plan, nil
}

// GetItem 取得項目
func (s *Store) GetItem(ctx context.Context, id string) (*grocery.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, common.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

// UpdateItem 更新項目（含移動到其他清單）
func (s *Store) UpdateItem(ctx context.Context, item *grocery.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return common.ErrItemNotFound
	}
	if _, ok := s.lists[item.ListID]; !ok {
		return common.ErrListNotFound
	}
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

// DeleteItem 刪除項目
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return common.ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}

// ClearList 刪除清單所有項目
func (s *Store) ClearList(ctx context.Context, listID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, item := range s.items {
		if item.ListID == listID {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}
