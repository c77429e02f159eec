package recipe

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"pantry-matcher/internal/pkg/common"
)

const (
	// DefaultTopK 預設保留的食譜數
	DefaultTopK = 2
	// DefaultFormatTimeout 單次做法整理的逾時
	DefaultFormatTimeout = 15 * time.Second
)

// Engine 食譜排序引擎
type Engine struct {
	normalizer    *Normalizer
	matcher       *Matcher
	formatter     Formatter
	formatTimeout time.Duration
}

// EngineOption 排序引擎選項
type EngineOption func(*Engine)

// WithFormatter 設定做法整理服務
func WithFormatter(f Formatter) EngineOption {
	return func(e *Engine) {
		e.formatter = f
	}
}

// WithFormatTimeout 設定單次整理逾時
func WithFormatTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.formatTimeout = d
		}
	}
}

// NewEngine 創建排序引擎
func NewEngine(normalizer *Normalizer, matcher *Matcher, opts ...EngineOption) *Engine {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	if matcher == nil {
		matcher = NewMatcher()
	}
	e := &Engine{
		normalizer:    normalizer,
		matcher:       matcher,
		formatTimeout: DefaultFormatTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rank 計算比對結果、排序並截斷到 topK，再整理保留食譜的做法
func (e *Engine) Rank(ctx context.Context, pantry []common.ProductRecord, recipes []common.Recipe, topK int) []common.MatchResult {
	results := e.Score(pantry, recipes, topK)
	e.formatAll(ctx, results)
	return results
}

// Score 只做比對與排序，不呼叫外部服務
func (e *Engine) Score(pantry []common.ProductRecord, recipes []common.Recipe, topK int) []common.MatchResult {
	if topK <= 0 {
		topK = DefaultTopK
	}

	results := make([]common.MatchResult, 0)
	for _, r := range recipes {
		res, ok := e.scoreRecipe(pantry, r)
		if !ok {
			continue
		}
		results = append(results, res)
	}

	// 同分保持目錄順序
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchPercentage > results[j].MatchPercentage
	})

	if len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// scoreRecipe 回傳 false 表示此食譜不列入候選
func (e *Engine) scoreRecipe(pantry []common.ProductRecord, r common.Recipe) (common.MatchResult, bool) {
	if strings.TrimSpace(r.Ingredients) == "" {
		return common.MatchResult{}, false
	}

	segments := strings.Split(r.Ingredients, ",")
	res := common.MatchResult{
		RecipeID:     r.ID,
		Title:        r.Title,
		Instructions: r.Instructions,
		TotalCount:   len(segments),
	}

	for _, seg := range segments {
		requirement := strings.TrimSpace(seg)
		base := e.normalizer.Normalize(requirement)

		matched := false
		for _, p := range pantry {
			if e.matcher.Matches(p, base) {
				matched = true
				break
			}
		}

		switch {
		case matched:
			res.MatchingCount++
			res.MatchedIngredients = append(res.MatchedIngredients, requirement)
		case requirement != "":
			res.MissingIngredients = append(res.MissingIngredients, requirement)
		}
	}

	if res.MatchingCount == 0 {
		return common.MatchResult{}, false
	}
	res.MatchPercentage = percentage(res.MatchingCount, res.TotalCount)
	return res, true
}

// percentage 四捨五入到小數點後兩位
func percentage(matched, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(matched)/float64(total)*10000) / 100
}

// formatAll 並行整理做法，失敗時保留原文
func (e *Engine) formatAll(ctx context.Context, results []common.MatchResult) {
	if e.formatter == nil {
		return
	}

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(res *common.MatchResult) {
			defer wg.Done()
			e.formatOne(ctx, res)
		}(&results[i])
	}
	wg.Wait()
}

func (e *Engine) formatOne(ctx context.Context, res *common.MatchResult) {
	callCtx, cancel := context.WithTimeout(ctx, e.formatTimeout)
	defer cancel()

	start := time.Now()
	out, err := e.formatter.Format(callCtx, res.Instructions, res.Title)
	if err == nil {
		out = StripBoilerplate(out)
		if out == "" {
			err = common.ErrFormattingDegraded.WithMessage("formatter returned empty text")
		}
	}
	common.LogFormatterCall(res.Title, time.Since(start), err)
	if err != nil {
		common.LogDebug("保留原始做法", zap.Int64("recipe_id", res.RecipeID))
		return
	}

	res.Instructions = out
	res.Formatted = true
}
