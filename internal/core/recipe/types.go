package recipe

import (
	"context"

	"pantry-matcher/internal/pkg/common"
)

// PantryReader 讀取 session 的商品快照
type PantryReader interface {
	Snapshot(ctx context.Context, sessionID string) ([]common.ProductRecord, error)
}

// CatalogReader 讀取食譜目錄
type CatalogReader interface {
	ListRecipes(ctx context.Context) ([]common.Recipe, error)
}

// AuditRecorder 寫入比對紀錄，回傳紀錄識別碼
type AuditRecorder interface {
	Record(ctx context.Context, sessionID string, matches []common.MatchResult) (string, error)
}

// GenerateResult 食譜推薦結果
type GenerateResult struct {
	Matches []common.MatchResult `json:"matches"`
	LogFile string               `json:"log_file"`
}
