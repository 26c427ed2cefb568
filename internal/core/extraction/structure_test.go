package extraction

import (
	"context"
	"errors"
	"testing"

	aiservice "souschef/internal/core/ai/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	content string
	err     error
	prompts []string
}

func (g *fakeGenerator) ProcessRequest(ctx context.Context, prompt string) (*aiservice.Response, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return nil, g.err
	}
	return &aiservice.Response{Content: g.content, Model: "test-model"}, nil
}

const sampleAIResponse = `Sure! Here is the recipe:
{
  "title": "Garlic Bread",
  "description": "",
  "prepTime": "10 minutes",
  "cook_time": 15,
  "servings": "4",
  "ingredients": [
    {"name": "baguette", "quantity": 1, "unit": null},
    {"name": "garlic", "quantity": "3", "unit": "clove", "notes": "minced"},
    {"name": "", "quantity": "2"},
    "salt"
  ],
  "instructions": [
    {"stepNumber": 1, "description": "Mash garlic into butter."},
    "Spread and bake.",
    {"text": "Serve warm."}
  ],
  "tags": ["Italian", "", "side dish"]
}
Enjoy!`

func TestParseRecipeJSON(t *testing.T) {
	r, err := ParseRecipeJSON(sampleAIResponse)
	require.NoError(t, err)

	assert.Equal(t, "Garlic Bread", r.Title)
	assert.Nil(t, r.Description)
	require.NotNil(t, r.PrepTime)
	assert.Equal(t, 10, *r.PrepTime)
	require.NotNil(t, r.CookTime)
	assert.Equal(t, 15, *r.CookTime)
	require.NotNil(t, r.Servings)
	assert.Equal(t, 4, *r.Servings)

	require.Len(t, r.Ingredients, 3)
	assert.Equal(t, "baguette", r.Ingredients[0].Name)
	assert.Equal(t, "1", r.Ingredients[0].Quantity)
	assert.Nil(t, r.Ingredients[0].Unit)
	require.NotNil(t, r.Ingredients[1].Notes)
	assert.Equal(t, "minced", *r.Ingredients[1].Notes)
	assert.Equal(t, "salt", r.Ingredients[2].Name)
	assert.Empty(t, r.Ingredients[2].Quantity)

	require.Len(t, r.Instructions, 3)
	assert.Equal(t, "Spread and bake.", r.Instructions[1].Description)
	assert.Equal(t, "Serve warm.", r.Instructions[2].Description)

	assert.Equal(t, []string{"Italian", "side dish"}, r.Tags)
}

func TestParseRecipeJSONErrors(t *testing.T) {
	_, err := ParseRecipeJSON("I could not find a recipe.")
	assert.Error(t, err)

	_, err = ParseRecipeJSON("{broken")
	assert.Error(t, err)

	_, err = ParseRecipeJSON(`{"title": "", "ingredients": [], "instructions": []}`)
	assert.Error(t, err)
}

func TestParseFlexInt(t *testing.T) {
	tests := []struct {
		in    string
		want  int
		valid bool
	}{
		{"15", 15, true},
		{"15 minutes", 15, true},
		{"1.5 hours", 90, true},
		{"1 hr", 60, true},
		{"PT1H30M", 90, true},
		{"PT45M", 45, true},
		{"about 20 min", 20, true},
		{"", 0, false},
		{"a while", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseFlexInt(flexString{Value: tt.in, Valid: true})
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestStructurerPrompt(t *testing.T) {
	gen := &fakeGenerator{content: sampleAIResponse}
	s := NewStructurer(gen, 5)

	r, err := s.Structure(context.Background(), "--- Image 1 of 2 ---\nflour", "make it vegan", true)
	require.NoError(t, err)
	assert.Equal(t, "Garlic Bread", r.Title)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "multiple images presented in sequential order")
	assert.Contains(t, prompt, "Suggest at most 5 short tags.")
	assert.Contains(t, prompt, "make it vegan")
	assert.Contains(t, prompt, "--- Image 1 of 2 ---\nflour")
}

func TestStructurerPropagatesAIError(t *testing.T) {
	boom := errors.New("provider down")
	s := NewStructurer(&fakeGenerator{err: boom}, 5)

	_, err := s.Structure(context.Background(), "some content", "", false)
	assert.ErrorIs(t, err, boom)
}
