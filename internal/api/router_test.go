package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	aiservice "souschef/internal/core/ai/service"
	"souschef/internal/core/auth"
	"souschef/internal/core/extraction"
	"souschef/internal/core/grocery"
	"souschef/internal/core/image"
	"souschef/internal/core/messaging"
	"souschef/internal/core/recipe"
	"souschef/internal/infrastructure/config"
	"souschef/internal/infrastructure/persistence/memory"
	"souschef/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const pancakeJSON = `{
  "title": "Pancakes",
  "description": "Fluffy pancakes",
  "prepTime": 10,
  "cookTime": 15,
  "servings": 4,
  "ingredients": [
    {"name": "flour", "quantity": "2", "unit": "cups"},
    {"name": "egg", "quantity": "1", "unit": null}
  ],
  "instructions": [
    {"stepNumber": 1, "description": "Mix everything"},
    {"stepNumber": 2, "description": "Fry"}
  ],
  "tags": ["breakfast"]
}`

type staticGenerator struct{}

func (staticGenerator) ProcessRequest(ctx context.Context, prompt string) (*aiservice.Response, error) {
	return &aiservice.Response{Content: pancakeJSON, Model: "test-model"}, nil
}

type noFetcher struct{}

func (noFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	return "", context.DeadlineExceeded
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   *common.ErrorBody `json:"error"`
}

type RouterTestSuite struct {
	suite.Suite
	router *Router
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{Version: "test", Env: "test"},
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
			MaxUploadBytes: 10 << 20,
		},
		RateLimit:   config.RateLimitConfig{Enabled: false},
		DedupWindow: time.Second,
	}

	store := memory.NewStore()
	recipes := recipe.NewService(store, 5)
	extractor := extraction.NewExtractor(extraction.Deps{
		Fetcher:    noFetcher{},
		Structurer: extraction.NewStructurer(staticGenerator{}, 5),
		Images:     image.NewService(config.ImageConfig{MaxSizeBytes: 1 << 20, MaxCount: 5, MaxDimension: 1000}),
		Recipes:    recipes,
	})
	groceries := grocery.NewService(store, recipes, nil)

	s.router = SetupRouter(cfg, Deps{
		Recipes:     recipes,
		Extractor:   extractor,
		Grocery:     groceries,
		Share:       grocery.NewShareService(groceries, messaging.NewCallMeBot(config.WhatsAppConfig{}), ""),
		Verifier:    auth.NewVerifier("router-test-secret"),
		Store:       store,
		StorageKind: "memory",
	})
}

func (s *RouterTestSuite) TearDownTest() {
	s.router.Close()
}

func (s *RouterTestSuite) do(method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)

	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (s *RouterTestSuite) extractPancakes() *recipe.Recipe {
	w, env := s.do(http.MethodPost, "/api/extract-text", gin.H{"text": "Pancakes: flour, egg. Mix everything and fry."})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.True(env.Success)
	s.Equal(common.MsgRecipeExtracted, env.Message)

	var result struct {
		Recipe recipe.Recipe `json:"recipe"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &result))
	return &result.Recipe
}

func (s *RouterTestSuite) TestHealth() {
	w, env := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, w.Code)
	s.True(env.Success)

	w, env = s.do(http.MethodGet, "/ready", nil)
	s.Equal(http.StatusOK, w.Code)
	s.True(env.Success)
}

func (s *RouterTestSuite) TestExtractTextAndList() {
	r := s.extractPancakes()
	s.Equal("Pancakes", r.Title)
	s.Equal("Text input", r.SourceURL)
	s.Len(r.Ingredients, 2)
	s.Require().Len(r.Instructions, 2)
	s.Equal(1, r.Instructions[0].StepNumber)

	w, env := s.do(http.MethodGet, "/api/recipes", nil)
	s.Equal(http.StatusOK, w.Code)
	var list struct {
		Count        int  `json:"count"`
		UserSpecific bool `json:"user_specific"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	s.Equal(1, list.Count)
	s.False(list.UserSpecific)
}

func (s *RouterTestSuite) TestExtractValidation() {
	w, env := s.do(http.MethodPost, "/api/extract-text", gin.H{"text": "   "})
	s.Equal(http.StatusBadRequest, w.Code)
	s.False(env.Success)
	s.Equal(common.ErrCodeInvalidRequest, env.Error.Code)
	s.Equal("text is required", env.Error.Message)

	w, env = s.do(http.MethodPost, "/api/extract", gin.H{"url": "ftp://example.com/recipe"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.False(env.Success)
}

func (s *RouterTestSuite) TestRecipeNotFound() {
	w, env := s.do(http.MethodGet, "/api/recipes/"+common.GenerateUUID(), nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("RECIPE_NOT_FOUND", env.Error.Code)
}

func (s *RouterTestSuite) TestInvalidToken() {
	w, env := s.do(http.MethodGet, "/api/recipes", nil, "Authorization", "Bearer not-a-jwt")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(env.Success)
	s.Equal(common.ErrCodeUnauthorized, env.Error.Code)
}

func (s *RouterTestSuite) TestAddRecipeToMasterList() {
	r := s.extractPancakes()

	for i := 0; i < 2; i++ {
		w, _ := s.do(http.MethodPost, "/api/grocery-lists/master/recipes", gin.H{"recipe_id": r.ID})
		s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	}

	w, env := s.do(http.MethodGet, "/api/grocery-lists/master", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var master grocery.List
	s.Require().NoError(json.Unmarshal(env.Data, &master))
	s.True(master.IsMaster)
	s.Require().Len(master.Items, 2)

	quantities := map[string]string{}
	for _, item := range master.Items {
		quantities[item.Name] = item.Quantity
	}
	s.Equal("4", quantities["flour"])
	s.Equal("2", quantities["egg"])

	w, env = s.do(http.MethodDelete, "/api/grocery-lists/"+master.ID, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("MASTER_LIST_DELETE", env.Error.Code)
}

func (s *RouterTestSuite) TestListLifecycle() {
	w, env := s.do(http.MethodPost, "/api/grocery-lists", gin.H{"name": " "})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("name is required", env.Error.Message)

	w, env = s.do(http.MethodPost, "/api/grocery-lists", gin.H{"name": "Party"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var l grocery.List
	s.Require().NoError(json.Unmarshal(env.Data, &l))

	w, env = s.do(http.MethodPost, "/api/grocery-lists/"+l.ID+"/items", gin.H{"name": "Chips", "quantity": "2", "unit": "bags"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(env.Data, &l))
	s.Require().Len(l.Items, 1)

	w, env = s.do(http.MethodPost, "/api/grocery-items/"+l.Items[0].ID+"/toggle", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var item grocery.Item
	s.Require().NoError(json.Unmarshal(env.Data, &item))
	s.True(item.Completed)

	w, _ = s.do(http.MethodDelete, "/api/grocery-lists/"+l.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/grocery-lists/"+l.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("LIST_NOT_FOUND", env.Error.Code)
}

func (s *RouterTestSuite) TestShareNotConfigured() {
	w, env := s.do(http.MethodPost, "/api/share-list", gin.H{
		"listName": "Party",
		"items":    []gin.H{{"name": "chips"}},
	})
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal("SHARE_NOT_CONFIGURED", env.Error.Code)

	w, env = s.do(http.MethodPost, "/api/share-multiple-lists", gin.H{"lists": []gin.H{}})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(common.ErrCodeInvalidRequest, env.Error.Code)
}

func (s *RouterTestSuite) TestSupportedDomains() {
	w, env := s.do(http.MethodGet, "/api/supported-domains", nil)
	s.Equal(http.StatusOK, w.Code)
	var data struct {
		Domains []extraction.Domain `json:"domains"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.NotEmpty(data.Domains)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func TestCORSConfig(t *testing.T) {
	open := corsConfig(config.CORSConfig{})
	assert.True(t, open.AllowAllOrigins)
	assert.False(t, open.AllowCredentials)

	restricted := corsConfig(config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}})
	require.Len(t, restricted.AllowOrigins, 1)
	assert.True(t, restricted.AllowCredentials)
}

func TestCORSFromSpacedOriginList(t *testing.T) {
	viper.Reset()
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test-0123456789")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)

	assert.NotPanics(t, func() {
		cors.New(corsConfig(cfg.CORS))
	})
}
