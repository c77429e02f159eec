package recipe

import (
	"strings"
	"unicode"
)

// Normalizer 將食材描述轉換為可比較的基礎形式
type Normalizer struct {
	vocab *Vocabulary
}

// NewNormalizer 創建正規化器，vocab 為 nil 時使用內建詞彙表
func NewNormalizer(vocab *Vocabulary) *Normalizer {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Normalizer{vocab: vocab}
}

// Normalize 回傳剔除描述詞、單位與數量後的基礎形式，可能為空字串
func (n *Normalizer) Normalize(raw string) string {
	tokens := tokenize(raw)
	kept := make([]string, 0, len(tokens))
	var nouns []string
	for i := 0; i < len(tokens); {
		if size := n.vocab.compoundAt(tokens, i); size > 0 {
			kept = append(kept, tokens[i:i+size]...)
			i += size
			continue
		}
		tok := tokens[i]
		i++
		if n.drop(tok) {
			if n.vocab.IsNounUnit(tok) {
				nouns = append(nouns, tok)
			}
			continue
		}
		kept = append(kept, tok)
	}
	// "whole cloves" 這類只剩單位詞的食材
	if len(kept) == 0 {
		kept = nouns
	}
	return strings.Join(kept, " ")
}

// drop 判斷 token 是否應被剔除
func (n *Normalizer) drop(tok string) bool {
	if n.vocab.IsDescriptor(tok) || n.vocab.IsUnit(tok) {
		return true
	}
	// "2", "250g", "12oz" 這類數量
	rest := strings.TrimLeftFunc(tok, unicode.IsDigit)
	if rest == tok {
		return false
	}
	return rest == "" || n.vocab.IsUnit(rest)
}

// tokenize 轉小寫後切成字母／數字連續片段
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(strings.TrimSpace(s)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
