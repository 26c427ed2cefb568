package extraction

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParsePageJSONLDGraph(t *testing.T) {
	page := `<html><head>
<meta property="og:image" content="/img/og.jpg">
<script type="application/ld+json">{"@context":"https://schema.org","@graph":[
  {"@type":"WebPage","name":"ignored"},
  {"@type":["Recipe","NewsArticle"],"name":"Lemon Cake","description":"Zesty.",
   "prepTime":"PT15M","cookTime":"PT40M","recipeYield":["8","8 slices"],
   "recipeIngredient":["2 cups flour","1 lemon"],
   "recipeInstructions":[
     {"@type":"HowToSection","itemListElement":[{"@type":"HowToStep","text":"Mix."},{"@type":"HowToStep","text":"Bake."}]}
   ]}
]}</script></head><body><h1>Lemon Cake</h1></body></html>`

	text, strategy, img, err := ParsePage(page, mustURL(t, "https://example.com/cakes/lemon"))
	require.NoError(t, err)
	assert.Equal(t, StrategyJSONLD, strategy)
	assert.Contains(t, text, "# Lemon Cake")
	assert.Contains(t, text, "## Description\nZesty.")
	assert.Contains(t, text, "Prep Time: PT15M")
	assert.Contains(t, text, "Servings: 8")
	assert.Contains(t, text, "- 2 cups flour")
	assert.Contains(t, text, "1. Mix.\n2. Bake.")

	require.NotNil(t, img)
	assert.Equal(t, "https://example.com/img/og.jpg", *img)
}

func TestParsePageSkipsInvalidJSONLD(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">{not json</script>
<script type="application/ld+json">[{"@type":"Recipe","name":"Soup","recipeInstructions":"Boil.\nServe."}]</script>
</head><body></body></html>`

	text, strategy, _, err := ParsePage(page, mustURL(t, "https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, StrategyJSONLD, strategy)
	assert.Contains(t, text, "1. Boil.\n2. Serve.")
}

func TestParsePageMicrodata(t *testing.T) {
	page := `<html><body>
<div itemscope itemtype="http://schema.org/Recipe">
  <span itemprop="name">Pancakes</span>
  <p itemprop="description">Fluffy   pancakes</p>
  <li itemprop="recipeIngredient">1 cup flour</li>
  <li itemprop="ingredients">1 egg</li>
  <div itemprop="recipeInstructions">Whisk everything.</div>
  <div itemprop="recipeInstructions">Fry.</div>
</div></body></html>`

	text, strategy, _, err := ParsePage(page, mustURL(t, "https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, StrategyMicrodata, strategy)
	assert.Equal(t, "# Pancakes\n\n## Description\nFluffy pancakes\n\n## Ingredients\n- 1 cup flour\n- 1 egg\n\n## Instructions\n1. Whisk everything.\n2. Fry.", text)
}

func TestParsePageSelectors(t *testing.T) {
	page := `<html><body>
<h1 class="recipe-title">Garlic Bread</h1>
<div class="recipe-image"><img src="bread.jpg"></div>
<ul class="ingredients"><li>1 baguette</li><li>3 cloves garlic</li><li>50 g butter</li><li>oil</li></ul>
<ol class="instructions"><li>Mash the garlic into the butter.</li><li>Spread on bread and bake.</li><li>Eat</li></ol>
</body></html>`

	text, strategy, img, err := ParsePage(page, mustURL(t, "https://example.com/recipes/bread"))
	require.NoError(t, err)
	assert.Equal(t, StrategySelectors, strategy)
	assert.Contains(t, text, "# Garlic Bread")
	assert.Contains(t, text, "- 3 cloves garlic")
	// 過短的項目被略過
	assert.NotContains(t, text, "- oil")
	assert.Contains(t, text, "1. Mash the garlic into the butter.")
	assert.NotContains(t, text, "Eat")

	require.NotNil(t, img)
	assert.Equal(t, "https://example.com/recipes/bread.jpg", *img)
}

func TestParsePageGeneralContent(t *testing.T) {
	long := strings.Repeat("Stir the pot slowly and taste as you go. ", 10)
	page := `<html><body><nav>Home | About</nav><script>var x = 1;</script>
<article><p>` + long + `</p><p>Serve hot.</p></article></body></html>`

	text, strategy, _, err := ParsePage(page, mustURL(t, "https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, StrategyGeneral, strategy)
	assert.Contains(t, text, "Serve hot.")
	assert.NotContains(t, text, "Home | About")
	assert.NotContains(t, text, "var x")
	assert.Equal(t, 2, len(strings.Split(text, "\n")))
}

func TestParsePageNoContent(t *testing.T) {
	text, strategy, img, err := ParsePage(`<html><body><p>Hi</p></body></html>`, mustURL(t, "https://example.com"))
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Empty(t, strategy)
	assert.Nil(t, img)
}

func TestMainImageFromAltText(t *testing.T) {
	page := `<html><body><img src="logo.png" alt="Site logo"><img src="/photos/dish.png" alt="Best Recipe Photo"></body></html>`
	_, _, img, err := ParsePage(page, mustURL(t, "https://example.com/a/b"))
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "https://example.com/photos/dish.png", *img)
}
