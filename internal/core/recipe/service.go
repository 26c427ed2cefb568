package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"souschef/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	// DefaultTitle AI 未提供標題時使用
	DefaultTitle = "Untitled Recipe"
	maxTagLength = 30
)

// Service 食譜服務
type Service struct {
	store   Store
	maxTags int
}

// NewService 創建新的食譜服務
func NewService(store Store, maxTags int) *Service {
	return &Service{
		store:   store,
		maxTags: maxTags,
	}
}

// MaxTags 每個食譜允許的標籤數
func (s *Service) MaxTags() int {
	return s.maxTags
}

// Create 保存擷取出的食譜，指派 ID 並整理欄位
//
// AI 建議的標籤超過上限時直接截斷。
func (s *Service) Create(ctx context.Context, ownerID *string, r *Recipe) (*Recipe, error) {
	if r == nil {
		return nil, common.NewValidationError("recipe", "recipe is required")
	}

	r.ID = common.GenerateUUID()
	r.OwnerID = ownerID
	r.CreatedAt = time.Now().UTC()
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		r.Title = DefaultTitle
	}

	tags := CleanTags(r.Tags)
	if len(tags) > s.maxTags {
		tags = tags[:s.maxTags]
	}
	r.Tags = tags

	ingredients := make([]Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			continue
		}
		ing.ID = common.GenerateUUID()
		ing.RecipeID = r.ID
		ing.Quantity = strings.TrimSpace(ing.Quantity)
		ing.Position = len(ingredients)
		ingredients = append(ingredients, ing)
	}
	r.Ingredients = ingredients

	// 依陣列順序重新編號，保證步驟連續
	instructions := make([]Instruction, 0, len(r.Instructions))
	for _, step := range r.Instructions {
		step.Description = strings.TrimSpace(step.Description)
		if step.Description == "" {
			continue
		}
		step.ID = common.GenerateUUID()
		step.RecipeID = r.ID
		step.StepNumber = len(instructions) + 1
		instructions = append(instructions, step)
	}
	r.Instructions = instructions

	if err := s.store.CreateRecipe(ctx, r); err != nil {
		common.LogError("保存食譜失敗", zap.String("recipe_id", r.ID), zap.Error(err))
		return nil, common.ErrRecipeSave.Wrap(err)
	}

	common.LogInfo("食譜已保存",
		zap.String("recipe_id", r.ID),
		zap.Int("ingredients", len(r.Ingredients)),
		zap.Int("instructions", len(r.Instructions)),
	)
	return r, nil
}

// Get 取得呼叫者範圍內的食譜
func (s *Service) Get(ctx context.Context, ownerID *string, id string) (*Recipe, error) {
	if !common.IsUUID(id) {
		return nil, common.ErrRecipeNotFound
	}
	r, err := s.store.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if !common.SameOwner(r.OwnerID, ownerID) {
		return nil, common.ErrRecipeNotFound
	}
	return r, nil
}

// List 列出呼叫者範圍內的食譜，最新的在前
func (s *Service) List(ctx context.Context, ownerID *string) ([]*Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// Update 更新食譜的描述性欄位
func (s *Service) Update(ctx context.Context, ownerID *string, id string, patch Update) (*Recipe, error) {
	r, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		r.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		r.Description = common.StringPtr(*patch.Description)
	}
	if patch.ImageURL != nil {
		r.ImageURL = common.StringPtr(*patch.ImageURL)
	}
	if patch.PrepTime != nil {
		r.PrepTime = patch.PrepTime
	}
	if patch.CookTime != nil {
		r.CookTime = patch.CookTime
	}
	if patch.Servings != nil {
		r.Servings = patch.Servings
	}
	if patch.Tags != nil {
		tags, err := s.ValidateTags(*patch.Tags)
		if err != nil {
			return nil, err
		}
		r.Tags = tags
	}

	if err := s.store.UpdateRecipe(ctx, r); err != nil {
		if errors.Is(err, common.ErrRecipeNotFound) {
			return nil, err
		}
		return nil, common.ErrRecipeSave.Wrap(err)
	}
	return r, nil
}

// SetTags 以使用者提供的標籤取代現有標籤
func (s *Service) SetTags(ctx context.Context, ownerID *string, id string, tags []string) (*Recipe, error) {
	return s.Update(ctx, ownerID, id, Update{Tags: &tags})
}

// Delete 刪除食譜
func (s *Service) Delete(ctx context.Context, ownerID *string, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.store.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	common.LogInfo("食譜已刪除", zap.String("recipe_id", id))
	return nil
}

// ValidateTags 整理使用者輸入的標籤，超過上限時返回驗證錯誤
func (s *Service) ValidateTags(tags []string) ([]string, error) {
	cleaned := CleanTags(tags)
	if len(cleaned) > s.maxTags {
		return nil, common.NewValidationError("tags", fmt.Sprintf("Too many tags (max %d)", s.maxTags))
	}
	return cleaned, nil
}

// CleanTags 去除空白、截斷過長標籤並以不分大小寫去重
func CleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = common.Truncate(strings.TrimSpace(tag), maxTagLength)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out
}
