package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"pantry-matcher/internal/api"
	"pantry-matcher/internal/core/ai/openrouter"
	"pantry-matcher/internal/core/ai/queue"
	formatService "pantry-matcher/internal/core/ai/service"
	"pantry-matcher/internal/core/audit"
	"pantry-matcher/internal/core/barcode"
	"pantry-matcher/internal/core/cache"
	"pantry-matcher/internal/core/catalog"
	"pantry-matcher/internal/core/image"
	"pantry-matcher/internal/core/lookup"
	"pantry-matcher/internal/core/pantry"
	"pantry-matcher/internal/core/recipe"
	"pantry-matcher/internal/core/scan"
	"pantry-matcher/internal/infrastructure/config"
	"pantry-matcher/internal/infrastructure/storage"
	"pantry-matcher/internal/pkg/common"
)

// application 持有所有需要關閉的資源
type application struct {
	deps    api.Dependencies
	closers []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Close 依相反順序關閉資源
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			common.LogWarn("關閉資源失敗", zap.Error(err))
		}
	}
}

func (a *application) onClose(c io.Closer) {
	a.closers = append(a.closers, c)
}

// buildApplication 依設定組裝儲存層與服務
func buildApplication(ctx context.Context, cfg *config.Config) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	// pantry 與 audit 共用同一個 badger
	var db *badger.DB
	if cfg.Pantry.Backend == "badger" || cfg.Audit.Backend == "badger" {
		db, err = storage.OpenBadger(cfg.Pantry.BadgerDir)
		if err != nil {
			return nil, err
		}
		app.onClose(db)
	}

	var redisClient *redis.Client
	if cfg.Pantry.Backend == "redis" || (cfg.Cache.Enabled && cfg.Cache.Backend == "redis") {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Pantry.RedisAddr,
			Password: cfg.Pantry.RedisPassword,
			DB:       cfg.Pantry.RedisDB,
		})
		app.onClose(redisClient)
	}

	store, err := openPantry(ctx, cfg, db, redisClient)
	if err != nil {
		return nil, err
	}
	app.onClose(store)

	auditLog, err := openAudit(cfg, db)
	if err != nil {
		return nil, err
	}
	app.onClose(auditLog)

	repo, err := catalog.Open(ctx, cfg.Catalog.SQLitePath)
	if err != nil {
		return nil, err
	}
	app.onClose(repo)
	if cfg.Catalog.SeedFile != "" {
		if _, err := repo.SeedFile(ctx, cfg.Catalog.SeedFile); err != nil {
			return nil, err
		}
	}

	productCache := newCache[lookup.Product](app, cfg, redisClient, "lookup")
	lookupClient := lookup.NewClient(lookup.Options{
		BaseURL:       cfg.Lookup.BaseURL,
		Timeout:       cfg.Lookup.Timeout,
		RatePerSecond: cfg.Lookup.RatePerSecond,
		Burst:         cfg.Lookup.Burst,
	}, productCache)

	engineOpts := []recipe.EngineOption{recipe.WithFormatTimeout(cfg.Formatter.Timeout)}
	if cfg.OpenRouter.Enabled {
		formatter := newFormatter(app, cfg, redisClient)
		engineOpts = append(engineOpts, recipe.WithFormatter(formatter))
		app.deps.Formatter = formatter
	} else {
		common.LogInfo("未設定 OpenRouter，做法將保持原文")
	}

	engine := recipe.NewEngine(recipe.NewNormalizer(nil), recipe.NewMatcher(), engineOpts...)

	app.deps.Scanner = scan.NewService(barcode.NewDecoder(), lookupClient, store)
	app.deps.Images = image.NewService(cfg.Image.MaxSizeBytes)
	app.deps.Store = store
	app.deps.Generator = recipe.NewService(store, repo, auditLog, engine, cfg.Ranking.TopK)
	app.deps.Logs = auditLog
	app.deps.Catalog = repo

	common.LogInfo("服務初始化完成",
		zap.String("pantry_backend", cfg.Pantry.Backend),
		zap.String("audit_backend", cfg.Audit.Backend),
		zap.String("catalog", cfg.Catalog.SQLitePath),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("formatter_enabled", cfg.OpenRouter.Enabled),
	)
	return app, nil
}

func openPantry(ctx context.Context, cfg *config.Config, db *badger.DB, client *redis.Client) (pantry.Store, error) {
	switch cfg.Pantry.Backend {
	case "memory":
		return pantry.NewMemoryStore(), nil
	case "badger":
		return pantry.NewBadgerStore(db), nil
	case "redis":
		return pantry.NewRedisStoreWithClient(ctx, client, cfg.Pantry.KeyPrefix)
	default:
		return nil, fmt.Errorf("unknown pantry backend %q", cfg.Pantry.Backend)
	}
}

func openAudit(cfg *config.Config, db *badger.DB) (audit.Log, error) {
	switch cfg.Audit.Backend {
	case "file":
		return audit.NewFileLog(cfg.Audit.Dir)
	case "badger":
		return audit.NewBadgerLog(db, false), nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Audit.Backend)
	}
}

// newCache 依設定建立快取，未啟用時回傳 nil
func newCache[V any](app *application, cfg *config.Config, client *redis.Client, name string) cache.Cache[V] {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.Backend == "redis" && client != nil {
		return cache.NewRedisCache[V](client, cfg.Pantry.KeyPrefix+":"+name, cfg.Cache.TTL)
	}
	m := cache.NewManager[V](name, cache.Options{
		MaxSize:         cfg.Cache.MaxSize,
		TTL:             cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})
	app.onClose(m)
	return m
}

func newFormatter(app *application, cfg *config.Config, client *redis.Client) *formatService.Service {
	provider := openrouter.NewClient(openrouter.Options{
		APIKey:    cfg.OpenRouter.APIKey,
		BaseURL:   cfg.OpenRouter.BaseURL,
		Model:     cfg.OpenRouter.Model,
		MaxTokens: cfg.OpenRouter.MaxTokens,
		Timeout:   cfg.OpenRouter.Timeout,
		Title:     cfg.App.Name,
	})
	breaker := formatService.NewCircuitBreaker(formatService.BreakerConfig{
		Name:             "openrouter",
		Timeout:          cfg.Formatter.OpenTimeout,
		FailureThreshold: cfg.Formatter.FailureThreshold,
	})
	q := queue.NewManager(cfg.Queue.Workers)
	app.onClose(closerFunc(func() error {
		q.Close()
		return nil
	}))

	common.LogInfo("做法整理已啟用",
		zap.String("model", provider.GetModel()),
		zap.Int("workers", cfg.Queue.Workers),
	)
	return formatService.NewService(provider, breaker, q, newCache[string](app, cfg, client, "format"))
}
