package common

import (
	"fmt"
	"strings"
	"time"
)

// ProductRecord 掃描後的商品紀錄（建立後不可變）
type ProductRecord struct {
	Name       string    `json:"name"`               // 商品名稱
	Category   string    `json:"category,omitempty"` // 商品分類，可為空
	Barcode    string    `json:"barcode"`            // 條碼
	CapturedAt time.Time `json:"captured_at"`        // 掃描時間
}

// Recipe 食譜目錄中的一筆資料（唯讀）
type Recipe struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Ingredients  string `json:"ingredients"`  // 逗號分隔的原始食材字串
	Instructions string `json:"instructions"` // 原始做法
}

// MatchResult 單一食譜的比對結果
type MatchResult struct {
	RecipeID           int64    `json:"recipe_id"`
	Title              string   `json:"title"`
	Instructions       string   `json:"instructions"`
	MatchingCount      int      `json:"matching_ingredients"`
	TotalCount         int      `json:"total_ingredients"`
	MatchPercentage    float64  `json:"match_percentage"`
	Rank               int      `json:"rank"`
	Formatted          bool     `json:"formatted"`                     // false 表示做法未經整理（FORMATTING_DEGRADED）
	MatchedIngredients []string `json:"matched_ingredients,omitempty"` // 已擁有的食材
	MissingIngredients []string `json:"missing_ingredients,omitempty"` // 尚缺的食材
}

// ItemError 批次中單一項目的錯誤
type ItemError struct {
	Index   int    `json:"index"`
	Barcode string `json:"barcode,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FormatProducts 將商品列表格式化為字串（用於日誌）
func FormatProducts(products []ProductRecord) string {
	var sb strings.Builder
	for i, p := range products {
		if i > 0 {
			sb.WriteString("、")
		}
		if p.Category != "" {
			sb.WriteString(fmt.Sprintf("%s(%s)", p.Name, p.Category))
		} else {
			sb.WriteString(p.Name)
		}
	}
	return sb.String()
}
