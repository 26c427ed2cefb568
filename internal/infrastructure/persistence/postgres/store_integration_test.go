//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"souschef/internal/core/grocery"
	"souschef/internal/core/recipe"
	"souschef/internal/infrastructure/config"
	"souschef/internal/infrastructure/database"
	"souschef/internal/pkg/common"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDBName     = "souschef_test"
	testDBUser     = "test_user"
	testDBPassword = "test_password"
)

func dsn(host string, port nat.Port) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		testDBUser, testDBPassword, host, port.Port(), testDBName)
}

type StoreIntegrationSuite struct {
	suite.Suite
	container testcontainers.Container
	store     *Store
	recipes   *recipe.Service
	lists     *grocery.Service
}

func (s *StoreIntegrationSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       testDBName,
				"POSTGRES_USER":     testDBUser,
				"POSTGRES_PASSWORD": testDBPassword,
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
				wait.ForSQL("5432/tcp", "postgres", dsn),
			),
		},
		Started: true,
	})
	s.Require().NoError(err, "failed to start postgres container")
	s.container = container

	host, err := container.Host(ctx)
	s.Require().NoError(err)
	port, err := container.MappedPort(ctx, "5432")
	s.Require().NoError(err)

	db, err := database.Connect(ctx, config.DatabaseConfig{URL: dsn(host, port), MaxOpenConns: 10})
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(db))
	// 第二次執行不應報錯
	s.Require().NoError(database.Migrate(db))

	s.store = NewStore(db)
	s.recipes = recipe.NewService(s.store, 5)
	s.lists = grocery.NewService(s.store, s.recipes, nil)
}

func (s *StoreIntegrationSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *StoreIntegrationSuite) SetupTest() {
	_, err := s.store.db.Exec(`TRUNCATE grocery_items, grocery_lists, instructions, ingredients, recipes`)
	s.Require().NoError(err)
}

func (s *StoreIntegrationSuite) createRecipe(owner *string) *recipe.Recipe {
	cups := "cups"
	r, err := s.recipes.Create(context.Background(), owner, &recipe.Recipe{
		Title:     "Pancakes",
		SourceURL: "https://example.com/pancakes",
		Tags:      []string{"breakfast", "quick"},
		Ingredients: []recipe.Ingredient{
			{Name: "flour", Quantity: "2", Unit: &cups},
			{Name: "egg", Quantity: "1"},
		},
		Instructions: []recipe.Instruction{
			{Description: "Mix"},
			{Description: "Fry"},
		},
	})
	s.Require().NoError(err)
	return r
}

func (s *StoreIntegrationSuite) TestRecipeRoundTrip() {
	ctx := context.Background()
	owner := common.GenerateUUID()
	created := s.createRecipe(&owner)

	got, err := s.recipes.Get(ctx, &owner, created.ID)
	s.Require().NoError(err)
	s.Equal("Pancakes", got.Title)
	s.Equal([]string{"breakfast", "quick"}, got.Tags)
	s.Require().Len(got.Ingredients, 2)
	s.Equal("flour", got.Ingredients[0].Name)
	s.Require().Len(got.Instructions, 2)
	s.Equal(2, got.Instructions[1].StepNumber)

	_, err = s.recipes.Get(ctx, nil, created.ID)
	s.ErrorIs(err, common.ErrRecipeNotFound)

	mine, err := s.recipes.List(ctx, &owner)
	s.Require().NoError(err)
	s.Len(mine, 1)
}

func (s *StoreIntegrationSuite) TestMasterListIsUnique() {
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.GetOrCreateMasterList(ctx, nil)
			s.NoError(err)
		}()
	}
	wg.Wait()

	lists, err := s.store.ListLists(ctx, nil)
	s.Require().NoError(err)
	s.Len(lists, 1)
}

func (s *StoreIntegrationSuite) TestConcurrentAggregation() {
	ctx := context.Background()
	r := s.createRecipe(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.lists.AddRecipeToList(ctx, nil, "", r.ID)
			s.NoError(err)
		}()
	}
	wg.Wait()

	master, err := s.lists.MasterList(ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(master.Items, 2)
	quantities := map[string]string{}
	for _, item := range master.Items {
		quantities[item.Name] = item.Quantity
	}
	s.Equal("20", quantities["flour"])
	s.Equal("10", quantities["egg"])
}

func (s *StoreIntegrationSuite) TestDeleteRecipeKeepsItems() {
	ctx := context.Background()
	r := s.createRecipe(nil)

	l, err := s.lists.AddRecipeToList(ctx, nil, "", r.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.recipes.Delete(ctx, nil, r.ID))

	got, err := s.lists.GetList(ctx, nil, l.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Items, 2)
	for _, item := range got.Items {
		s.Nil(item.RecipeID)
		s.Nil(item.IngredientID)
		s.Require().NotNil(item.RecipeTitle)
		s.Equal("Pancakes", *item.RecipeTitle)
	}
}

func (s *StoreIntegrationSuite) TestDeleteListCascades() {
	ctx := context.Background()

	l, err := s.lists.CreateList(ctx, nil, "Party")
	s.Require().NoError(err)
	l, err = s.lists.AddItem(ctx, nil, l.ID, grocery.ItemInput{Name: "chips", Quantity: "2"})
	s.Require().NoError(err)
	itemID := l.Items[0].ID

	s.Require().NoError(s.lists.DeleteList(ctx, nil, l.ID))
	_, err = s.store.GetItem(ctx, itemID)
	s.ErrorIs(err, common.ErrItemNotFound)
}

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Run(t, new(StoreIntegrationSuite))
}
