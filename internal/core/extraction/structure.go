package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	aiservice "souschef/internal/core/ai/service"
	"souschef/internal/core/recipe"
	"souschef/internal/pkg/common"
)

// Generator AI 文字生成
type Generator interface {
	ProcessRequest(ctx context.Context, prompt string) (*aiservice.Response, error)
}

// Structurer 將擷取出的原始文字交給 AI 轉為食譜結構
type Structurer struct {
	ai      Generator
	maxTags int
}

// NewStructurer 創建結構化器
func NewStructurer(ai Generator, maxTags int) *Structurer {
	return &Structurer{ai: ai, maxTags: maxTags}
}

// Structure 呼叫 AI 並解析返回的 JSON
func (s *Structurer) Structure(ctx context.Context, content, instructions string, multiImage bool) (*recipe.Recipe, error) {
	resp, err := s.ai.ProcessRequest(ctx, s.buildPrompt(content, instructions, multiImage))
	if err != nil {
		return nil, err
	}
	return ParseRecipeJSON(resp.Content)
}

func (s *Structurer) buildPrompt(content, instructions string, multiImage bool) string {
	var b strings.Builder

	b.WriteString("Extract the recipe details from the following content.\n\n")
	if multiImage {
		b.WriteString("IMPORTANT: The content comes from multiple images presented in sequential order. ")
		b.WriteString("The first image might contain ingredients and later images might contain instructions. ")
		b.WriteString("Process them in the order provided and combine the information correctly.\n\n")
	}

	b.WriteString(`Return ONLY a JSON object with the following structure:
{
  "title": "Recipe title",
  "description": "Brief description of the recipe",
  "prepTime": 15,
  "cookTime": 30,
  "servings": 4,
  "ingredients": [
    {"name": "ingredient name", "quantity": "1.5", "unit": "cup", "notes": "optional preparation notes"}
  ],
  "instructions": [
    {"stepNumber": 1, "description": "step description"}
  ],
  "tags": ["cuisine type", "vegetarian/non-vegetarian", "meal type", "difficulty", "cooking method"]
}

Normalization rules:
1. Ingredient names are lower-case and trimmed.
2. Drop descriptive prefixes such as "fresh", "dried", "frozen", "chopped", "sliced", "diced", "minced" and "whole" from the name and put them in "notes".
3. Drop form suffixes such as "leaves", "bunch", "stalk", "sprig" and "clove" from the name unless the unit needs them.
4. Use canonical unit abbreviations: g, kg, ml, l, tsp, tbsp, cup, oz, lb. Quantities are numeric values only (e.g. 1, 0.5, 1.5) without units; use an empty string when there is no amount.

Times are in minutes. Use null for anything the content does not state.
`)
	fmt.Fprintf(&b, "Suggest at most %d short tags.\n", s.maxTags)

	if instructions = strings.TrimSpace(instructions); instructions != "" {
		b.WriteString("\nAdditional instructions from the user:\n")
		b.WriteString(instructions)
		b.WriteString("\n")
	}

	b.WriteString("\nHere's the content to parse:\n")
	b.WriteString(content)
	b.WriteString("\n\nRemember to return ONLY the JSON object with no additional text or explanations.")
	return b.String()
}

// aiRecipe AI 返回的食譜，欄位型別寬鬆
type aiRecipe struct {
	Title        flexString      `json:"title"`
	Description  flexString      `json:"description"`
	PrepTime     flexInt         `json:"prepTime"`
	PrepTimeAlt  flexInt         `json:"prep_time"`
	CookTime     flexInt         `json:"cookTime"`
	CookTimeAlt  flexInt         `json:"cook_time"`
	Servings     flexInt         `json:"servings"`
	Ingredients  []aiIngredient  `json:"ingredients"`
	Instructions []aiInstruction `json:"instructions"`
	Tags         []flexString    `json:"tags"`
}

type aiIngredient struct {
	Name     flexString `json:"name"`
	Quantity flexString `json:"quantity"`
	Unit     flexString `json:"unit"`
	Notes    flexString `json:"notes"`
}

// UnmarshalJSON 也接受單純字串
func (i *aiIngredient) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		i.Name = flexString{Value: name, Valid: true}
		return nil
	}
	type plain aiIngredient
	return json.Unmarshal(data, (*plain)(i))
}

type aiInstruction struct {
	Description string
}

// UnmarshalJSON 接受字串或 {description|text} 物件
func (i *aiInstruction) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		i.Description = text
		return nil
	}
	var obj struct {
		Description flexString `json:"description"`
		Text        flexString `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	i.Description = obj.Description.Value
	if i.Description == "" {
		i.Description = obj.Text.Value
	}
	return nil
}

// flexString 接受字串、數字、布林或 null
type flexString struct {
	Value string
	Valid bool
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexString{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString{Value: strings.TrimSpace(s), Valid: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString{Value: n.String(), Valid: true}
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexString{Value: strconv.FormatBool(b), Valid: true}
		return nil
	}
	// 物件或陣列視為缺值
	*f = flexString{}
	return nil
}

func (f flexString) ptr() *string {
	if !f.Valid {
		return nil
	}
	return common.StringPtr(f.Value)
}

// flexInt 接受數字、數字字串、"15 minutes"、"1 hour" 與 ISO 8601 期間
type flexInt struct {
	Value int
	Valid bool
}

var (
	isoDuration = regexp.MustCompile(`(?i)^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:\d+S)?)?$`)
	firstNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = parseFlexInt(s)
	return nil
}

func parseFlexInt(s flexString) flexInt {
	if !s.Valid || s.Value == "" {
		return flexInt{}
	}
	v := strings.TrimSpace(s.Value)

	if m := isoDuration.FindStringSubmatch(v); m != nil && len(v) > 1 {
		days, _ := strconv.Atoi(m[1])
		hours, _ := strconv.Atoi(m[2])
		mins, _ := strconv.Atoi(m[3])
		return flexInt{Value: days*24*60 + hours*60 + mins, Valid: true}
	}

	num := firstNumber.FindString(v)
	if num == "" {
		return flexInt{}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return flexInt{}
	}
	lower := strings.ToLower(v)
	if (strings.Contains(lower, "hour") || strings.Contains(lower, "hr")) && !strings.Contains(lower, "min") {
		f *= 60
	}
	return flexInt{Value: int(math.Round(f)), Valid: true}
}

func (f flexInt) ptr() *int {
	if !f.Valid || f.Value < 0 {
		return nil
	}
	v := f.Value
	return &v
}

func firstValid(a, b flexInt) flexInt {
	if a.Valid {
		return a
	}
	return b
}

// ParseRecipeJSON 從 AI 回應擷取 JSON 物件並轉為食譜
func ParseRecipeJSON(raw string) (*recipe.Recipe, error) {
	obj, ok := common.ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object in AI response")
	}

	var parsed aiRecipe
	if err := common.ParseJSON(obj, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	r := &recipe.Recipe{
		Title:       parsed.Title.Value,
		Description: parsed.Description.ptr(),
		PrepTime:    firstValid(parsed.PrepTime, parsed.PrepTimeAlt).ptr(),
		CookTime:    firstValid(parsed.CookTime, parsed.CookTimeAlt).ptr(),
		Servings:    parsed.Servings.ptr(),
		Tags:        make([]string, 0, len(parsed.Tags)),
	}

	for _, ing := range parsed.Ingredients {
		if ing.Name.Value == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, recipe.Ingredient{
			Name:     ing.Name.Value,
			Quantity: ing.Quantity.Value,
			Unit:     ing.Unit.ptr(),
			Notes:    ing.Notes.ptr(),
		})
	}
	for _, step := range parsed.Instructions {
		r.Instructions = append(r.Instructions, recipe.Instruction{Description: step.Description})
	}
	for _, tag := range parsed.Tags {
		if tag.Value != "" {
			r.Tags = append(r.Tags, tag.Value)
		}
	}

	if r.Title == "" && len(r.Ingredients) == 0 && len(r.Instructions) == 0 {
		return nil, fmt.Errorf("AI response contains no recipe")
	}
	return r, nil
}
