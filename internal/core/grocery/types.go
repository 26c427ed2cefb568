package grocery

import (
	"context"
	"time"
)

// MasterListName 每個擁有者範圍預設清單的名稱
const MasterListName = "Master Grocery List"

// List 購物清單
type List struct {
	ID        string    `json:"id"`
	OwnerID   *string   `json:"owner_id"`
	Name      string    `json:"name"`
	IsMaster  bool      `json:"is_master"`
	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items"`
}

// Item 購物項目，名稱與單位保留使用者輸入的原樣
type Item struct {
	ID           string    `json:"id"`
	ListID       string    `json:"list_id"`
	IngredientID *string   `json:"ingredient_id"`
	RecipeID     *string   `json:"recipe_id"`
	RecipeTitle  *string   `json:"recipe_title"`
	Name         string    `json:"name"`
	Quantity     string    `json:"quantity"`
	QuantityNote *string   `json:"quantity_note"`
	Unit         *string   `json:"unit"`
	Completed    bool      `json:"completed"`
	CreatedAt    time.Time `json:"created_at"`
}

// Update 合併到既有項目的數量
type Update struct {
	ID           string
	Quantity     string
	QuantityNote *string
}

// Plan 聚合結果：更新既有項目或新增項目
type Plan struct {
	Updates []Update
	Inserts []Item
}

// Empty 是否沒有任何變更
func (p Plan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Inserts) == 0
}

// PlanFunc 根據清單現有項目產生聚合計畫
type PlanFunc func(existing []Item) Plan

// Store 購物清單持久層
type Store interface {
	CreateList(ctx context.Context, l *List) error
	// GetList 返回清單及其項目（最新的在前）
	GetList(ctx context.Context, id string) (*List, error)
	ListLists(ctx context.Context, ownerID *string) ([]*List, error)
	// GetOrCreateMasterList 每個擁有者範圍最多一個主清單
	GetOrCreateMasterList(ctx context.Context, ownerID *string) (*List, error)
	RenameList(ctx context.Context, id, name string) error
	DeleteList(ctx context.Context, id string) error

	// ApplyToList 在鎖定清單的情況下讀取項目、產生計畫並寫入，整體為原子操作
	ApplyToList(ctx context.Context, listID string, build PlanFunc) (Plan, error)

	GetItem(ctx context.Context, id string) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, id string) error
	ClearList(ctx context.Context, listID string) (int64, error)
}
