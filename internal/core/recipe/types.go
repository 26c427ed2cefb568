package recipe

import (
	"context"
	"time"
)

// Recipe 食譜
type Recipe struct {
	ID           string        `json:"id"`
	OwnerID      *string       `json:"owner_id"`
	Title        string        `json:"title"`
	Description  *string       `json:"description"`
	SourceURL    string        `json:"source_url"`
	ImageURL     *string       `json:"image_url"`
	PrepTime     *int          `json:"prep_time"` // 分鐘
	CookTime     *int          `json:"cook_time"` // 分鐘
	Servings     *int          `json:"servings"`
	Tags         []string      `json:"tags"`
	CreatedAt    time.Time     `json:"created_at"`
	Ingredients  []Ingredient  `json:"ingredients"`
	Instructions []Instruction `json:"instructions"`
}

// Ingredient 食材，數量為自由文字
type Ingredient struct {
	ID       string  `json:"id"`
	RecipeID string  `json:"recipe_id"`
	Name     string  `json:"name"`
	Quantity string  `json:"quantity"`
	Unit     *string `json:"unit"`
	Notes    *string `json:"notes"`
	Position int     `json:"-"`
}

// Instruction 步驟，StepNumber 從 1 開始連續遞增
type Instruction struct {
	ID          string `json:"id"`
	RecipeID    string `json:"recipe_id"`
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
}

// Update 食譜部分更新，nil 欄位保持不變
type Update struct {
	Title       *string   `json:"title" binding:"omitempty,notblank,max=200"`
	Description *string   `json:"description" binding:"omitempty,max=2000"`
	ImageURL    *string   `json:"image_url" binding:"omitempty,url"`
	PrepTime    *int      `json:"prep_time" binding:"omitempty,min=0,max=10000"`
	CookTime    *int      `json:"cook_time" binding:"omitempty,min=0,max=10000"`
	Servings    *int      `json:"servings" binding:"omitempty,min=0,max=1000"`
	Tags        *[]string `json:"tags"`
}

// Store 食譜持久層
type Store interface {
	// CreateRecipe 在同一交易中寫入食譜、食材與步驟
	CreateRecipe(ctx context.Context, r *Recipe) error
	GetRecipe(ctx context.Context, id string) (*Recipe, error)
	ListRecipes(ctx context.Context, ownerID *string) ([]*Recipe, error)
	UpdateRecipe(ctx context.Context, r *Recipe) error
	// DeleteRecipe 刪除食譜，食材與步驟隨之刪除
	DeleteRecipe(ctx context.Context, id string) error
	ListIngredients(ctx context.Context, recipeID string) ([]Ingredient, error)
	ListInstructions(ctx context.Context, recipeID string) ([]Instruction, error)
}
