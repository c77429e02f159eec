package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry-matcher/internal/core/ai/queue"
	"pantry-matcher/internal/pkg/common"
)

// Pinger 可檢查連線狀態的依賴
type Pinger interface {
	Ping(ctx context.Context) error
}

// FormatterStatus 做法整理服務狀態
type FormatterStatus interface {
	BreakerState() string
	QueueStatus() queue.Status
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Formatter *FormatterInfo         `json:"formatter,omitempty"`
}

// FormatterInfo 做法整理的斷路器與隊列狀態
type FormatterInfo struct {
	Breaker string       `json:"breaker"`
	Queue   queue.Status `json:"queue"`
}

// Handler 健康檢查處理器
type Handler struct {
	version   string
	catalog   Pinger
	formatter FormatterStatus
}

// NewHandler 創建健康檢查處理器，formatter 可為 nil
func NewHandler(version string, catalog Pinger, formatter FormatterStatus) *Handler {
	return &Handler{version: version, catalog: catalog, formatter: formatter}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.formatter != nil {
		response.Formatter = &FormatterInfo{
			Breaker: h.formatter.BreakerState(),
			Queue:   h.formatter.QueueStatus(),
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，食譜目錄無法連線時回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.catalog != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.catalog.Ping(ctx); err != nil {
			common.LogWarn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"code":   common.ErrCodeCatalogUnavailable,
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
