package grocery

import "strings"

// 食材名稱前綴，依表格順序比對，只移除第一個符合者
var namePrefixes = []string{
	"fresh ",
	"dried ",
	"frozen ",
	"chopped ",
	"sliced ",
	"diced ",
	"minced ",
	"whole ",
}

// 食材名稱後綴，依表格順序比對，只移除第一個符合者
var nameSuffixes = []string{
	" leaves",
	" bunch",
	" bunches",
	" stalk",
	" stalks",
	" sprig",
	" sprigs",
	" clove",
	" cloves",
}

// 單位同義詞對照表
var unitSynonyms = map[string]string{
	"gram":        "g",
	"grams":       "g",
	"gm":          "g",
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
	"cups":        "cup",
	"liter":       "l",
	"liters":      "l",
	"litre":       "l",
	"litres":      "l",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"kilo":        "kg",
	"kilos":       "kg",
	"pound":       "lb",
	"pounds":      "lb",
	"lbs":         "lb",
	"ounce":       "oz",
	"ounces":      "oz",
	"milliliter":  "ml",
	"milliliters": "ml",
	"millilitre":  "ml",
	"millilitres": "ml",
}

// NormalizeName 將食材名稱轉為比對用的標準形式
//
// 轉小寫後每一輪移除一個描述性前綴與一個後綴（依表格順序取第一個符合者），
// 再去除空白。"fresh dried basil" 這類疊加描述會再處理一輪，直到結果穩定。
func NormalizeName(raw string) string {
	name := strings.TrimSpace(strings.ToLower(raw))
	for {
		next := stripOnce(name)
		if next == name {
			return name
		}
		name = next
	}
}

func stripOnce(name string) string {
	for _, prefix := range namePrefixes {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimPrefix(name, prefix)
			break
		}
	}
	for _, suffix := range nameSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	return strings.TrimSpace(name)
}

// NormalizeUnit 將單位轉為標準縮寫，nil 保持 nil，未知單位僅轉小寫
func NormalizeUnit(raw *string) *string {
	if raw == nil {
		return nil
	}
	unit := strings.TrimSpace(strings.ToLower(*raw))
	if canonical, ok := unitSynonyms[unit]; ok {
		unit = canonical
	}
	return &unit
}

// Key 以標準化名稱與單位組成分組鍵
func Key(name string, unit *string) string {
	normalized := ""
	if u := NormalizeUnit(unit); u != nil {
		normalized = *u
	}
	return NormalizeName(name) + "|" + normalized
}
