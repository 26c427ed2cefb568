package grocery_test

import (
	"context"
	"sync"
	"testing"

	"souschef/internal/core/grocery"
	"souschef/internal/core/recipe"
	"souschef/internal/infrastructure/persistence/memory"
	"souschef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMetrics struct {
	mu       sync.Mutex
	merged   int
	inserted int
}

func (m *countingMetrics) ItemsMerged(n int) {
	m.mu.Lock()
	m.merged += n
	m.mu.Unlock()
}

func (m *countingMetrics) ItemsInserted(n int) {
	m.mu.Lock()
	m.inserted += n
	m.mu.Unlock()
}

type fixture struct {
	store   *memory.Store
	recipes *recipe.Service
	lists   *grocery.Service
	metrics *countingMetrics
}

func newFixture() *fixture {
	store := memory.NewStore()
	recipes := recipe.NewService(store, 5)
	metrics := &countingMetrics{}
	return &fixture{
		store:   store,
		recipes: recipes,
		lists:   grocery.NewService(store, recipes, metrics),
		metrics: metrics,
	}
}

func unit(s string) *string { return &s }

func (f *fixture) saveRecipe(t *testing.T, owner *string, ingredients ...recipe.Ingredient) *recipe.Recipe {
	t.Helper()
	r, err := f.recipes.Create(context.Background(), owner, &recipe.Recipe{
		Title:       "Pancakes",
		SourceURL:   "https://example.com/pancakes",
		Ingredients: ingredients,
	})
	require.NoError(t, err)
	return r
}

func TestListListsCreatesMasterOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	lists, err := f.lists.ListLists(ctx, nil)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.True(t, lists[0].IsMaster)
	assert.Equal(t, grocery.MasterListName, lists[0].Name)

	lists, err = f.lists.ListLists(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, lists, 1)

	owner := common.GenerateUUID()
	ownerLists, err := f.lists.ListLists(ctx, &owner)
	require.NoError(t, err)
	require.Len(t, ownerLists, 1)
	assert.NotEqual(t, lists[0].ID, ownerLists[0].ID)
}

func TestAddRecipeToMasterList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.saveRecipe(t, nil,
		recipe.Ingredient{Name: "Flour", Quantity: "2", Unit: unit("cups")},
		recipe.Ingredient{Name: "Egg", Quantity: "1"},
	)

	l, err := f.lists.AddRecipeToList(ctx, nil, "", r.ID)
	require.NoError(t, err)
	assert.True(t, l.IsMaster)
	require.Len(t, l.Items, 2)
	for _, item := range l.Items {
		require.NotNil(t, item.RecipeTitle)
		assert.Equal(t, "Pancakes", *item.RecipeTitle)
		assert.Equal(t, r.ID, *item.RecipeID)
	}

	// 再加一次同一食譜：數量加總，不新增項目
	l, err = f.lists.AddRecipeToList(ctx, nil, "master", r.ID)
	require.NoError(t, err)
	require.Len(t, l.Items, 2)
	quantities := map[string]string{}
	for _, item := range l.Items {
		quantities[item.Name] = item.Quantity
	}
	assert.Equal(t, "4", quantities["Flour"])
	assert.Equal(t, "2", quantities["Egg"])

	assert.Equal(t, 2, f.metrics.inserted)
	assert.Equal(t, 2, f.metrics.merged)
}

func TestAddRecipeOutsideScope(t *testing.T) {
	f := newFixture()
	owner := common.GenerateUUID()
	r := f.saveRecipe(t, &owner, recipe.Ingredient{Name: "Egg", Quantity: "1"})

	_, err := f.lists.AddRecipeToList(context.Background(), nil, "", r.ID)
	assert.ErrorIs(t, err, common.ErrRecipeNotFound)
}

func TestListScoping(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := common.GenerateUUID()
	bob := common.GenerateUUID()

	l, err := f.lists.CreateList(ctx, &alice, "Weekend")
	require.NoError(t, err)

	_, err = f.lists.GetList(ctx, &bob, l.ID)
	assert.ErrorIs(t, err, common.ErrListNotFound)
	_, err = f.lists.GetList(ctx, nil, l.ID)
	assert.ErrorIs(t, err, common.ErrListNotFound)
	_, err = f.lists.GetList(ctx, &alice, "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrListNotFound)

	got, err := f.lists.GetList(ctx, &alice, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Weekend", got.Name)
}

func TestCreateAndRenameListValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.lists.CreateList(ctx, nil, "   ")
	assert.True(t, common.IsValidationError(err))

	l, err := f.lists.CreateList(ctx, nil, "Party")
	require.NoError(t, err)

	renamed, err := f.lists.RenameList(ctx, nil, l.ID, " BBQ ")
	require.NoError(t, err)
	assert.Equal(t, "BBQ", renamed.Name)
}

func TestDeleteMasterListRefused(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	master, err := f.lists.MasterList(ctx, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, f.lists.DeleteList(ctx, nil, master.ID), common.ErrMasterListDelete)

	l, err := f.lists.CreateList(ctx, nil, "Temp")
	require.NoError(t, err)
	require.NoError(t, f.lists.DeleteList(ctx, nil, l.ID))
	_, err = f.lists.GetList(ctx, nil, l.ID)
	assert.ErrorIs(t, err, common.ErrListNotFound)
}

func TestItemOperations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	l, err := f.lists.AddItem(ctx, nil, "", grocery.ItemInput{Name: "Milk", Quantity: "1", Unit: unit("l")})
	require.NoError(t, err)
	require.Len(t, l.Items, 1)
	itemID := l.Items[0].ID

	toggled, err := f.lists.ToggleItem(ctx, nil, itemID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	name := "Oat milk"
	qty := "2"
	updated, err := f.lists.UpdateItem(ctx, nil, itemID, grocery.ItemPatch{Name: &name, Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", updated.Name)
	assert.Equal(t, "2", updated.Quantity)
	assert.True(t, updated.Completed)

	blank := " "
	_, err = f.lists.UpdateItem(ctx, nil, itemID, grocery.ItemPatch{Name: &blank})
	assert.True(t, common.IsValidationError(err))

	other, err := f.lists.CreateList(ctx, nil, "Other")
	require.NoError(t, err)
	moved, err := f.lists.MoveItem(ctx, nil, itemID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, moved.ListID)

	otherOwner := common.GenerateUUID()
	_, err = f.lists.ToggleItem(ctx, &otherOwner, itemID)
	assert.ErrorIs(t, err, common.ErrItemNotFound)

	require.NoError(t, f.lists.DeleteItem(ctx, nil, itemID))
	_, err = f.lists.ToggleItem(ctx, nil, itemID)
	assert.ErrorIs(t, err, common.ErrItemNotFound)
}

func TestClearList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	l, err := f.lists.CreateList(ctx, nil, "Week")
	require.NoError(t, err)
	for _, name := range []string{"Apples", "Bread", "Cheese"} {
		_, err := f.lists.AddItem(ctx, nil, l.ID, grocery.ItemInput{Name: name, Quantity: "1"})
		require.NoError(t, err)
	}

	n, err := f.lists.ClearList(ctx, nil, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := f.lists.GetList(ctx, nil, l.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	master, err := f.lists.MasterList(ctx, nil)
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.lists.AddItem(ctx, nil, master.ID, grocery.ItemInput{Name: "Egg", Quantity: "1"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.lists.GetList(ctx, nil, master.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "20", got.Items[0].Quantity)
}

func TestDeletedRecipeKeepsItems(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.saveRecipe(t, nil, recipe.Ingredient{Name: "Butter", Quantity: "100", Unit: unit("g")})
	l, err := f.lists.AddRecipeToList(ctx, nil, "", r.ID)
	require.NoError(t, err)

	require.NoError(t, f.recipes.Delete(ctx, nil, r.ID))

	got, err := f.lists.GetList(ctx, nil, l.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Butter", got.Items[0].Name)
	assert.Nil(t, got.Items[0].RecipeID)
	assert.Nil(t, got.Items[0].IngredientID)
}
