package recipe

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"pantry-matcher/internal/pkg/common"
)

// Service 食譜推薦服務
type Service struct {
	pantry  PantryReader
	catalog CatalogReader
	audit   AuditRecorder
	engine  *Engine
	topK    int
}

// NewService 創建新的食譜推薦服務
func NewService(pantry PantryReader, catalog CatalogReader, audit AuditRecorder, engine *Engine, defaultTopK int) *Service {
	if engine == nil {
		engine = NewEngine(nil, nil)
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Service{
		pantry:  pantry,
		catalog: catalog,
		audit:   audit,
		engine:  engine,
		topK:    defaultTopK,
	}
}

// Generate 依 session 的商品推薦食譜，topK <= 0 時使用預設值
func (s *Service) Generate(ctx context.Context, sessionID string, topK int) (*GenerateResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, common.ErrMissingSession
	}
	if topK <= 0 {
		topK = s.topK
	}
	start := time.Now()

	products, err := s.pantry.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, wrapUnless(err, common.ErrStoreUnavailable)
	}

	recipes, err := s.catalog.ListRecipes(ctx)
	if err != nil {
		common.LogError("讀取食譜目錄失敗", zap.Error(err))
		return nil, wrapUnless(err, common.ErrCatalogUnavailable)
	}

	matches := s.engine.Rank(ctx, products, recipes, topK)

	// 呼叫端已取消時不寫入紀錄
	if err := ctx.Err(); err != nil {
		return nil, common.ErrRequestCancelled.Wrap(err)
	}

	result := &GenerateResult{Matches: matches}
	if s.audit != nil {
		logID, err := s.audit.Record(ctx, sessionID, matches)
		if err != nil {
			common.LogError("寫入比對紀錄失敗",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		} else {
			result.LogFile = logID
		}
	}

	if len(matches) == 0 {
		common.LogInfo("沒有符合的食譜",
			zap.String("session_id", sessionID),
			zap.Int("products", len(products)),
		)
	}
	common.LogInfo("食譜推薦完成",
		zap.String("session_id", sessionID),
		zap.String("pantry", common.FormatProducts(products)),
		zap.Int("recipes", len(recipes)),
		zap.Int("matches", len(matches)),
		zap.Duration("耗時", time.Since(start)),
	)
	return result, nil
}

// wrapUnless 已是 CustomError 時原樣回傳
func wrapUnless(err error, fallback *common.CustomError) error {
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return err
	}
	return fallback.Wrap(err)
}
