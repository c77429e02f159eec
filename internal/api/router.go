package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry-matcher/internal/api/handlers/health"
	pantryHandler "pantry-matcher/internal/api/handlers/pantry"
	recipeHandler "pantry-matcher/internal/api/handlers/recipe"
	"pantry-matcher/internal/api/middleware"
	"pantry-matcher/internal/core/pantry"
	"pantry-matcher/internal/infrastructure/config"
	"pantry-matcher/internal/pkg/common"
)

// Dependencies 路由所需的服務
type Dependencies struct {
	Scanner   pantryHandler.Scanner
	Images    pantryHandler.ImageDecoder
	Store     pantry.Store
	Generator recipeHandler.Generator
	Logs      recipeHandler.LogReader
	Catalog   health.Pinger
	Formatter health.FormatterStatus // 未啟用時為 nil
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, deps.Catalog, deps.Formatter)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	var limited []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limited = append(limited, middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	scanH := pantryHandler.NewHandler(deps.Scanner, deps.Images, deps.Store)
	recipeH := recipeHandler.NewHandler(deps.Generator, deps.Logs)
	dedup := middleware.Deduplication(cfg.DedupWindow)

	register := func(g *gin.RouterGroup) {
		g.POST("/scan", scanH.HandleScan)
		g.POST("/add_product", scanH.HandleAddProduct)
		g.POST("/generate_recipe", dedup, recipeH.HandleGenerate)
	}

	// 保留舊客戶端使用的根路徑
	register(router.Group("/", limited...))

	v1 := router.Group("/api/v1", limited...)
	register(v1)
	v1.GET("/pantry/:session_id", scanH.HandleGetPantry)
	v1.GET("/match_logs/:id", recipeH.HandleGetMatchLog)

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("formatter_enabled", deps.Formatter != nil),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
