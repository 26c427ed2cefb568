package extraction

import (
	"fmt"
	"net/url"
	"strings"

	"souschef/internal/pkg/common"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	minGeneralContent = 200
	maxGeneralContent = 5000
	minPageContent    = 100
)

// Strategy HTML 擷取策略名稱
type Strategy string

const (
	StrategyJSONLD    Strategy = "json_ld"
	StrategyMicrodata Strategy = "microdata"
	StrategySelectors Strategy = "selectors"
	StrategyGeneral   Strategy = "general"
)

var (
	titleSelectors = []string{"h1.recipe-title", ".recipe-header h1", ".recipe-title", "h1"}

	ingredientSelectors = []string{
		".recipe-ingredients li",
		".ingredients li",
		".wprm-recipe-ingredient",
		".tasty-recipes-ingredients li",
		".mntl-structured-ingredients__list-item",
		".ingredient-list li",
		".recipe-ingredient",
		"[class*=\"ingredient\"]",
	}

	instructionSelectors = []string{
		".recipe-instructions li",
		".instructions li",
		".wprm-recipe-instruction",
		".tasty-recipes-instructions li",
		".recipe-directions li",
		".directions li",
		".recipe-instruction",
		"[class*=\"instruction\"]",
	}

	imageSelectors = []string{
		".recipe-image img",
		".recipe-photo img",
		".recipe img",
		"[class*=\"recipe\"] img",
	}

	mainContentSelectors = []string{"main", ".main-content", ".content", "article", ".recipe"}
)

// ParsePage 解析 HTML，依序嘗試各擷取策略並找出主圖
//
// 返回的文字為空時表示頁面沒有可用內容。
func ParsePage(body string, pageURL *url.URL) (text string, strategy Strategy, imageURL *string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// 先找圖片，一般內容策略會移除節點
	imageURL = mainImage(doc, pageURL)

	if text := fromJSONLD(doc); text != "" {
		return text, StrategyJSONLD, imageURL, nil
	}
	if text := fromMicrodata(doc); text != "" {
		return text, StrategyMicrodata, imageURL, nil
	}
	if text := fromSelectors(doc); text != "" {
		return text, StrategySelectors, imageURL, nil
	}
	if text := fromGeneralContent(doc); len(text) > minPageContent {
		return text, StrategyGeneral, imageURL, nil
	}
	return "", "", imageURL, nil
}

// fromJSONLD 讀取 schema.org Recipe 結構化資料
func fromJSONLD(doc *goquery.Document) string {
	var out string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data interface{}
		if err := common.ParseJSON(strings.TrimSpace(s.Text()), &data); err != nil {
			return true
		}
		if recipe := findRecipeNode(data); recipe != nil {
			out = formatJSONLDRecipe(recipe)
			return out == ""
		}
		return true
	})
	return out
}

func findRecipeNode(v interface{}) map[string]interface{} {
	switch node := v.(type) {
	case []interface{}:
		for _, item := range node {
			if r := findRecipeNode(item); r != nil {
				return r
			}
		}
	case map[string]interface{}:
		if isRecipeType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			return findRecipeNode(graph)
		}
	}
	return nil
}

func isRecipeType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func formatJSONLDRecipe(r map[string]interface{}) string {
	var lines []string

	if name := jsonText(r["name"]); name != "" {
		lines = append(lines, "# "+name)
	}
	if desc := jsonText(r["description"]); desc != "" {
		lines = append(lines, "\n## Description\n"+desc)
	}

	prep, cook := jsonText(r["prepTime"]), jsonText(r["cookTime"])
	if prep != "" || cook != "" {
		lines = append(lines, "\n## Timing")
		if prep != "" {
			lines = append(lines, "Prep Time: "+prep)
		}
		if cook != "" {
			lines = append(lines, "Cook Time: "+cook)
		}
	}
	if yield := jsonText(r["recipeYield"]); yield != "" {
		lines = append(lines, "Servings: "+yield)
	}

	if ingredients := jsonList(r["recipeIngredient"]); len(ingredients) > 0 {
		lines = append(lines, "\n## Ingredients")
		for _, ing := range ingredients {
			lines = append(lines, "- "+ing)
		}
	}

	if steps := instructionTexts(r["recipeInstructions"]); len(steps) > 0 {
		lines = append(lines, "\n## Instructions")
		for i, step := range steps {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, step))
		}
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// jsonText 將 JSON-LD 的值轉為單行文字，陣列取第一個
func jsonText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []interface{}:
		if len(val) == 0 {
			return ""
		}
		return jsonText(val[0])
	case map[string]interface{}:
		if t := jsonText(val["text"]); t != "" {
			return t
		}
		return jsonText(val["name"])
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

func jsonList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		if s := jsonText(v); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := jsonText(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// instructionTexts 攤平 HowToStep 與 HowToSection
func instructionTexts(v interface{}) []string {
	switch val := v.(type) {
	case string:
		var out []string
		for _, line := range strings.Split(val, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	case []interface{}:
		var out []string
		for _, item := range val {
			out = append(out, instructionTexts(item)...)
		}
		return out
	case map[string]interface{}:
		if elems, ok := val["itemListElement"]; ok {
			return instructionTexts(elems)
		}
		if t := jsonText(val); t != "" {
			return []string{t}
		}
	}
	return nil
}

// fromMicrodata 讀取 itemtype 含 recipe 的 microdata
func fromMicrodata(doc *goquery.Document) string {
	root := doc.Find("[itemtype]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		t, _ := s.Attr("itemtype")
		return strings.Contains(strings.ToLower(t), "recipe")
	}).First()
	if root.Length() == 0 {
		return ""
	}

	var lines []string
	if name := cleanText(root.Find(`[itemprop="name"]`).First().Text()); name != "" {
		lines = append(lines, "# "+name)
	}
	if desc := cleanText(root.Find(`[itemprop="description"]`).First().Text()); desc != "" {
		lines = append(lines, "\n## Description\n"+desc)
	}

	ingredients := root.Find(`[itemprop="recipeIngredient"], [itemprop="ingredients"]`)
	if ingredients.Length() > 0 {
		lines = append(lines, "\n## Ingredients")
		ingredients.Each(func(_ int, s *goquery.Selection) {
			if text := cleanText(s.Text()); text != "" {
				lines = append(lines, "- "+text)
			}
		})
	}

	steps := root.Find(`[itemprop="recipeInstructions"]`)
	if steps.Length() > 0 {
		lines = append(lines, "\n## Instructions")
		n := 0
		steps.Each(func(_ int, s *goquery.Selection) {
			if text := cleanText(s.Text()); text != "" {
				n++
				lines = append(lines, fmt.Sprintf("%d. %s", n, text))
			}
		})
	}

	return strings.Join(lines, "\n")
}

// fromSelectors 以常見的 CSS class 找標題、食材與步驟
func fromSelectors(doc *goquery.Document) string {
	var lines []string

	for _, sel := range titleSelectors {
		if title := cleanText(doc.Find(sel).First().Text()); title != "" {
			lines = append(lines, "# "+title)
			break
		}
	}

	for _, sel := range ingredientSelectors {
		found := doc.Find(sel)
		if found.Length() <= 2 {
			continue
		}
		lines = append(lines, "\n## Ingredients")
		found.Slice(0, min(found.Length(), 20)).Each(func(_ int, s *goquery.Selection) {
			if text := cleanText(s.Text()); len(text) > 3 {
				lines = append(lines, "- "+text)
			}
		})
		break
	}

	for _, sel := range instructionSelectors {
		found := doc.Find(sel)
		if found.Length() <= 1 {
			continue
		}
		lines = append(lines, "\n## Instructions")
		found.Slice(0, min(found.Length(), 15)).Each(func(i int, s *goquery.Selection) {
			if text := cleanText(s.Text()); len(text) > 10 {
				lines = append(lines, fmt.Sprintf("%d. %s", i+1, text))
			}
		})
		break
	}

	// 只有標題不算
	if len(lines) <= 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// fromGeneralContent 移除版面元素後取主要區塊的文字
func fromGeneralContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside").Remove()

	for _, sel := range mainContentSelectors {
		found := doc.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		if text := nodeText(found); len(text) > minGeneralContent {
			return common.Truncate(text, maxGeneralContent)
		}
	}

	if text := nodeText(doc.Find("body").First()); len(text) > minGeneralContent {
		return common.Truncate(text, maxGeneralContent)
	}
	return ""
}

// mainImage 依序嘗試食譜圖片、og:image 與主內容的第一張圖
func mainImage(doc *goquery.Document, pageURL *url.URL) *string {
	for _, sel := range imageSelectors {
		if src, ok := doc.Find(sel).First().Attr("src"); ok && strings.TrimSpace(src) != "" {
			return resolveURL(pageURL, src)
		}
	}

	alt := doc.Find("img[alt]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		a, _ := s.Attr("alt")
		return strings.Contains(strings.ToLower(a), "recipe")
	}).First()
	if src, ok := alt.Attr("src"); ok && strings.TrimSpace(src) != "" {
		return resolveURL(pageURL, src)
	}

	if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
		return resolveURL(pageURL, content)
	}

	if src, ok := doc.Find("main, article, .content, .recipe").First().Find("img").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		return resolveURL(pageURL, src)
	}
	return nil
}

func resolveURL(base *url.URL, ref string) *string {
	ref = strings.TrimSpace(ref)
	if base == nil {
		return &ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return &ref
	}
	resolved := base.ResolveReference(u).String()
	return &resolved
}

// nodeText 以換行連接所有非空白文字節點
func nodeText(s *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
