package grocery

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"souschef/internal/core/recipe"
	"souschef/internal/pkg/common"
)

var (
	mixedNumberPattern = regexp.MustCompile(`^(\d+)\s+(\d+)\s*/\s*(\d+)`)
	fractionPattern    = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)`)
	decimalPattern     = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)
)

// ParseQuantity 寬鬆解析數量：取開頭的數字、分數或帶分數，無法解析時為 0
func ParseQuantity(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	if m := mixedNumberPattern.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den != 0 {
			return whole + num/den
		}
		return whole
	}
	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den != 0 {
			return num / den
		}
		return num
	}
	if m := decimalPattern.FindString(s); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err == nil {
			return v
		}
	}
	return 0
}

// FormatQuantity 以最短的十進位表示輸出數量
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// isQualitative 數量中沒有任何可解析的數字（例如 "a pinch"）
func isQualitative(raw string) bool {
	s := strings.TrimSpace(raw)
	return s != "" && ParseQuantity(s) == 0 && !decimalPattern.MatchString(s)
}

// mergeNote 將質性數量附加到備註，重複者略過
func mergeNote(note *string, qualitative ...string) *string {
	parts := []string{}
	seen := map[string]bool{}
	if note != nil && *note != "" {
		for _, p := range strings.Split(*note, "; ") {
			if !seen[strings.ToLower(p)] {
				seen[strings.ToLower(p)] = true
				parts = append(parts, p)
			}
		}
	}
	for _, q := range qualitative {
		q = strings.TrimSpace(q)
		if q == "" || seen[strings.ToLower(q)] {
			continue
		}
		seen[strings.ToLower(q)] = true
		parts = append(parts, q)
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, "; ")
	return &joined
}

// aggregateEntry 聚合過程中同一個分組鍵的狀態
type aggregateEntry struct {
	updateIdx int // Plan.Updates 的索引，-1 表示尚未更新
	insertIdx int // Plan.Inserts 的索引，-1 表示不是新增項目
	itemID    string
	quantity  string
	note      *string
}

// Aggregate 將新食材與清單現有項目合併
//
// 分組鍵相同者加總數量並更新既有項目，否則新增項目並保留原始名稱與單位。
// 同一批次中鍵相同的食材也會合併。無法解析的數量以 0 計，原文保存在 QuantityNote。
func Aggregate(existing []Item, incoming []recipe.Ingredient, recipeID, recipeTitle *string) Plan {
	plan := Plan{}
	entries := make(map[string]*aggregateEntry, len(existing))

	// 既有項目中鍵重複時後者覆蓋前者
	for _, item := range existing {
		entries[Key(item.Name, item.Unit)] = &aggregateEntry{
			updateIdx: -1,
			insertIdx: -1,
			itemID:    item.ID,
			quantity:  item.Quantity,
			note:      item.QuantityNote,
		}
	}

	now := time.Now().UTC()
	for _, ing := range incoming {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		key := Key(name, ing.Unit)

		entry, ok := entries[key]
		if !ok {
			item := Item{
				ID:           common.GenerateUUID(),
				RecipeID:     recipeID,
				RecipeTitle:  recipeTitle,
				Name:         name,
				Quantity:     strings.TrimSpace(ing.Quantity),
				Unit:         ing.Unit,
				CreatedAt:    now,
				IngredientID: nonEmpty(ing.ID),
			}
			plan.Inserts = append(plan.Inserts, item)
			entries[key] = &aggregateEntry{
				updateIdx: -1,
				insertIdx: len(plan.Inserts) - 1,
				itemID:    item.ID,
				quantity:  item.Quantity,
			}
			continue
		}

		var dropped []string
		if isQualitative(entry.quantity) {
			dropped = append(dropped, entry.quantity)
		}
		if isQualitative(ing.Quantity) {
			dropped = append(dropped, ing.Quantity)
		}
		entry.quantity = FormatQuantity(ParseQuantity(entry.quantity) + ParseQuantity(ing.Quantity))
		entry.note = mergeNote(entry.note, dropped...)

		switch {
		case entry.insertIdx >= 0:
			plan.Inserts[entry.insertIdx].Quantity = entry.quantity
			plan.Inserts[entry.insertIdx].QuantityNote = entry.note
		case entry.updateIdx >= 0:
			plan.Updates[entry.updateIdx].Quantity = entry.quantity
			plan.Updates[entry.updateIdx].QuantityNote = entry.note
		default:
			plan.Updates = append(plan.Updates, Update{
				ID:           entry.itemID,
				Quantity:     entry.quantity,
				QuantityNote: entry.note,
			})
			entry.updateIdx = len(plan.Updates) - 1
		}
	}

	return plan
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
