package recipe_test

import (
	"context"
	"testing"

	"souschef/internal/core/recipe"
	"souschef/internal/infrastructure/persistence/memory"
	"souschef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *recipe.Service {
	return recipe.NewService(memory.NewStore(), 5)
}

func TestCreateNormalizesRecipe(t *testing.T) {
	svc := newService()

	r, err := svc.Create(context.Background(), nil, &recipe.Recipe{
		Title: "  ",
		Tags:  []string{"Dinner", "dinner", " quick ", "", "vegan", "spicy", "italian", "weeknight"},
		Ingredients: []recipe.Ingredient{
			{Name: " flour ", Quantity: " 2 "},
			{Name: ""},
			{Name: "salt"},
		},
		Instructions: []recipe.Instruction{
			{StepNumber: 4, Description: "Mix"},
			{StepNumber: 9, Description: "  "},
			{StepNumber: 2, Description: "Bake"},
		},
	})
	require.NoError(t, err)

	assert.True(t, common.IsUUID(r.ID))
	assert.Nil(t, r.OwnerID)
	assert.Equal(t, recipe.DefaultTitle, r.Title)
	assert.Equal(t, []string{"Dinner", "quick", "vegan", "spicy", "italian"}, r.Tags)

	require.Len(t, r.Ingredients, 2)
	assert.Equal(t, "flour", r.Ingredients[0].Name)
	assert.Equal(t, "2", r.Ingredients[0].Quantity)
	assert.Equal(t, r.ID, r.Ingredients[1].RecipeID)

	require.Len(t, r.Instructions, 2)
	assert.Equal(t, 1, r.Instructions[0].StepNumber)
	assert.Equal(t, "Mix", r.Instructions[0].Description)
	assert.Equal(t, 2, r.Instructions[1].StepNumber)
}

func TestGetScopedToOwner(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	alice := common.GenerateUUID()

	r, err := svc.Create(ctx, &alice, &recipe.Recipe{Title: "Soup"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, &alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soup", got.Title)

	_, err = svc.Get(ctx, nil, r.ID)
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)

	bob := common.GenerateUUID()
	_, err = svc.Get(ctx, &bob, r.ID)
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)

	_, err = svc.Get(ctx, &alice, "42")
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)

	guest, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, guest)

	mine, err := svc.List(ctx, &alice)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestSetTags(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	r, err := svc.Create(ctx, nil, &recipe.Recipe{Title: "Salad"})
	require.NoError(t, err)

	updated, err := svc.SetTags(ctx, nil, r.ID, []string{"fresh", "Fresh", "summer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "summer"}, updated.Tags)

	_, err = svc.SetTags(ctx, nil, r.ID, []string{"a", "b", "c", "d", "e", "f"})
	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))

	got, err := svc.Get(ctx, nil, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "summer"}, got.Tags)
}

func TestUpdateKeepsIngredients(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	r, err := svc.Create(ctx, nil, &recipe.Recipe{
		Title:       "Bread",
		Ingredients: []recipe.Ingredient{{Name: "flour", Quantity: "500"}},
	})
	require.NoError(t, err)

	title := "Sourdough"
	servings := 2
	updated, err := svc.Update(ctx, nil, r.ID, recipe.Update{Title: &title, Servings: &servings})
	require.NoError(t, err)
	assert.Equal(t, "Sourdough", updated.Title)
	assert.Equal(t, 2, *updated.Servings)

	got, err := svc.Get(ctx, nil, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sourdough", got.Title)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, "flour", got.Ingredients[0].Name)
}

func TestDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	owner := common.GenerateUUID()

	r, err := svc.Create(ctx, &owner, &recipe.Recipe{Title: "Stew"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, nil, r.ID), common.ErrRecipeNotFound)
	require.NoError(t, svc.Delete(ctx, &owner, r.ID))
	assert.ErrorIs(t, svc.Delete(ctx, &owner, r.ID), common.ErrRecipeNotFound)
}

func TestCleanTags(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyz0123456789"
	got := recipe.CleanTags([]string{long, "  ", "Keto", "KETO"})
	assert.Equal(t, []string{long[:30], "Keto"}, got)
}
