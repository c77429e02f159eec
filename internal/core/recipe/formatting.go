package recipe

import (
	"context"
	"strings"
)

// Formatter 外部做法整理服務
type Formatter interface {
	Format(ctx context.Context, rawInstructions, title string) (string, error)
}

// FormatterFunc 讓普通函式實作 Formatter
type FormatterFunc func(ctx context.Context, rawInstructions, title string) (string, error)

// Format 實作 Formatter
func (f FormatterFunc) Format(ctx context.Context, rawInstructions, title string) (string, error) {
	return f(ctx, rawInstructions, title)
}

// 模型回覆常見的開場白
var boilerplatePrefixes = []string{
	"here is",
	"here's",
	"here are",
	"sure!",
	"sure,",
	"sure.",
	"certainly",
	"of course",
	"okay",
}

// 後面接著一段引言（如 "the steps:"）的開場白
var leadInPrefixes = map[string]bool{
	"here is":  true,
	"here's":   true,
	"here are": true,
}

// 開場白之後要一併去掉的標點
const boilerplateTrailer = ":!,.- \t"

// StripBoilerplate 移除回覆開頭的客套句，只去掉開場白本身與其引言
func StripBoilerplate(text string) string {
	out := strings.TrimSpace(text)
	for {
		prefix, ok := leadingBoilerplate(out)
		if !ok {
			return out
		}
		rest := out[len(prefix):]
		if leadInPrefixes[prefix] {
			rest = dropLeadIn(rest)
		}
		out = strings.TrimSpace(strings.TrimLeft(rest, boilerplateTrailer))
	}
}

// dropLeadIn 去掉第一行中到 ':' 或句尾為止的引言；
// 多行時沒有句尾的首行整行視為引言
func dropLeadIn(rest string) string {
	line := rest
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		line = rest[:idx]
	}
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ':':
			return rest[i+1:]
		case '.', '!':
			if i+1 == len(line) || line[i+1] == ' ' {
				return rest[i+1:]
			}
		}
	}
	if len(line) < len(rest) {
		return rest[len(line):]
	}
	return rest
}

func leadingBoilerplate(text string) (string, bool) {
	for _, p := range boilerplatePrefixes {
		if len(text) < len(p) || !strings.EqualFold(text[:len(p)], p) {
			continue
		}
		// "okayed"、"here isn't" 不算開場白
		if len(text) > len(p) && isWordByte(p[len(p)-1]) && isWordByte(text[len(p)]) {
			continue
		}
		return p, true
	}
	return "", false
}

func isWordByte(b byte) bool {
	return b == '\'' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
