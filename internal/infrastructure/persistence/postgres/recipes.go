package postgres

import (
	"context"
	"fmt"
	"time"

	"souschef/internal/core/recipe"
	"souschef/internal/pkg/common"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type recipeRow struct {
	ID          string         `db:"id"`
	OwnerID     *string        `db:"owner_id"`
	Title       string         `db:"title"`
	Description *string        `db:"description"`
	SourceURL   string         `db:"source_url"`
	ImageURL    *string        `db:"image_url"`
	PrepTime    *int           `db:"prep_time"`
	CookTime    *int           `db:"cook_time"`
	Servings    *int           `db:"servings"`
	Tags        pq.StringArray `db:"tags"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (r recipeRow) toRecipe() *recipe.Recipe {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &recipe.Recipe{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Title:        r.Title,
		Description:  r.Description,
		SourceURL:    r.SourceURL,
		ImageURL:     r.ImageURL,
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		Servings:     r.Servings,
		Tags:         tags,
		CreatedAt:    r.CreatedAt,
		Ingredients:  []recipe.Ingredient{},
		Instructions: []recipe.Instruction{},
	}
}

type ingredientRow struct {
	ID       string  `db:"id"`
	RecipeID string  `db:"recipe_id"`
	Name     string  `db:"name"`
	Quantity string  `db:"quantity"`
	Unit     *string `db:"unit"`
	Notes    *string `db:"notes"`
	Position int     `db:"position"`
}

type instructionRow struct {
	ID          string `db:"id"`
	RecipeID    string `db:"recipe_id"`
	StepNumber  int    `db:"step_number"`
	Description string `db:"description"`
}

const recipeColumns = `id, owner_id, title, description, source_url, image_url, prep_time, cook_time, servings, tags, created_at`

// CreateRecipe 在同一交易中寫入食譜、食材與步驟
func (s *Store) CreateRecipe(ctx context.Context, r *recipe.Recipe) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (`+recipeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			r.ID, r.OwnerID, r.Title, r.Description, r.SourceURL, r.ImageURL,
			r.PrepTime, r.CookTime, r.Servings, pq.StringArray(r.Tags), r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}

		for _, ing := range r.Ingredients {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO ingredients (id, recipe_id, name, quantity, unit, notes, position) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				ing.ID, r.ID, ing.Name, ing.Quantity, ing.Unit, ing.Notes, ing.Position,
			)
			if err != nil {
				return fmt.Errorf("failed to insert ingredient: %w", err)
			}
		}

		for _, step := range r.Instructions {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO instructions (id, recipe_id, step_number, description) VALUES ($1, $2, $3, $4)`,
				step.ID, r.ID, step.StepNumber, step.Description,
			)
			if err != nil {
				return fmt.Errorf("failed to insert instruction: %w", err)
			}
		}
		return nil
	})
}

// GetRecipe 取得食譜及其食材與步驟
func (s *Store) GetRecipe(ctx context.Context, id string) (*recipe.Recipe, error) {
	var row recipeRow
	err := s.db.GetContext(ctx, &row, `SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, common.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	r := row.toRecipe()
	if err := s.attachChildren(ctx, []*recipe.Recipe{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes 列出擁有者範圍內的食譜，最新的在前
func (s *Store) ListRecipes(ctx context.Context, ownerID *string) ([]*recipe.Recipe, error) {
	var rows []recipeRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+recipeColumns+` FROM recipes WHERE owner_id IS NOT DISTINCT FROM $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]*recipe.Recipe, 0, len(rows))
	for _, row := range rows {
		recipes = append(recipes, row.toRecipe())
	}
	if err := s.attachChildren(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// attachChildren 以一次查詢載入多個食譜的食材與步驟
func (s *Store) attachChildren(ctx context.Context, recipes []*recipe.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]string, 0, len(recipes))
	byID := make(map[string]*recipe.Recipe, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
		byID[r.ID] = r
	}

	var ingredients []ingredientRow
	err := s.db.SelectContext(ctx, &ingredients,
		`SELECT id, recipe_id, name, quantity, unit, notes, position FROM ingredients
		 WHERE recipe_id = ANY($1) ORDER BY recipe_id, position`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to load ingredients: %w", err)
	}
	for _, row := range ingredients {
		r := byID[row.RecipeID]
		r.Ingredients = append(r.Ingredients, recipe.Ingredient(row))
	}

	var instructions []instructionRow
	err = s.db.SelectContext(ctx, &instructions,
		`SELECT id, recipe_id, step_number, description FROM instructions
		 WHERE recipe_id = ANY($1) ORDER BY recipe_id, step_number`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to load instructions: %w", err)
	}
	for _, row := range instructions {
		r := byID[row.RecipeID]
		r.Instructions = append(r.Instructions, recipe.Instruction(row))
	}
	return nil
}

// UpdateRecipe 更新食譜欄位與標籤
func (s *Store) UpdateRecipe(ctx context.Context, r *recipe.Recipe) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET title = $2, description = $3, image_url = $4, prep_time = $5,
		 cook_time = $6, servings = $7, tags = $8 WHERE id = $1`,
		r.ID, r.Title, r.Description, r.ImageURL, r.PrepTime, r.CookTime, r.Servings, pq.StringArray(r.Tags),
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrRecipeNotFound
	}
	return nil
}

// DeleteRecipe 刪除食譜，食材與步驟由外鍵串聯刪除
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrRecipeNotFound
	}
	return nil
}

// ListIngredients 列出食譜的食材
func (s *Store) ListIngredients(ctx context.Context, recipeID string) ([]recipe.Ingredient, error) {
	var rows []ingredientRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, recipe_id, name, quantity, unit, notes, position FROM ingredients WHERE recipe_id = $1 ORDER BY position`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	out := make([]recipe.Ingredient, 0, len(rows))
	for _, row := range rows {
		out = append(out, recipe.Ingredient(row))
	}
	return out, nil
}

// ListInstructions 列出食譜的步驟
func (s *Store) ListInstructions(ctx context.Context, recipeID string) ([]recipe.Instruction, error) {
	var rows []instructionRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, recipe_id, step_number, description FROM instructions WHERE recipe_id = $1 ORDER BY step_number`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructions: %w", err)
	}
	out := make([]recipe.Instruction, 0, len(rows))
	for _, row := range rows {
		out = append(out, recipe.Instruction(row))
	}
	return out, nil
}
