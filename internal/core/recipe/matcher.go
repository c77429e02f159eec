package recipe

import (
	"strings"
	"unicode/utf8"

	"pantry-matcher/internal/pkg/common"
)

// minSharedTokenLen token 重疊比對時，共同 token 需超過此長度
const minSharedTokenLen = 2

// Matcher 判斷商品是否滿足某項食材需求
type Matcher struct{}

// NewMatcher 創建比對器
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Matches 先做包含比對，失敗再做 token 重疊比對
func (m *Matcher) Matches(product common.ProductRecord, baseForm string) bool {
	if baseForm == "" {
		return false
	}
	base := strings.ToLower(baseForm)
	name := strings.ToLower(strings.TrimSpace(product.Name))
	category := strings.ToLower(strings.TrimSpace(product.Category))

	if contains(name, base) || contains(base, name) || contains(category, base) {
		return true
	}
	return sharesToken(base, name+" "+category)
}

// contains 空字串不視為包含關係
func contains(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}

func sharesToken(base, productText string) bool {
	words := make(map[string]struct{})
	for _, tok := range tokenize(productText) {
		if utf8.RuneCountInString(tok) > minSharedTokenLen {
			words[tok] = struct{}{}
		}
	}
	for _, tok := range tokenize(base) {
		if _, ok := words[tok]; ok {
			return true
		}
	}
	return false
}
