package recipe

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"pantry-matcher/internal/api/handlers"
	"pantry-matcher/internal/core/audit"
	recipeService "pantry-matcher/internal/core/recipe"
	"pantry-matcher/internal/pkg/common"
)

// Generator 食譜推薦
type Generator interface {
	Generate(ctx context.Context, sessionID string, topK int) (*recipeService.GenerateResult, error)
}

// LogReader 讀取比對紀錄
type LogReader interface {
	Read(id string) (*audit.Entry, error)
}

// GenerateRequest 推薦請求
type GenerateRequest struct {
	SessionID string `json:"session_id"`
	TopK      int    `json:"top_k,omitempty"`
}

// Handler 食譜處理器
type Handler struct {
	generator Generator
	logs      LogReader
}

// NewHandler 創建食譜處理器，logs 可為 nil
func NewHandler(generator Generator, logs LogReader) *Handler {
	return &Handler{generator: generator, logs: logs}
}

// HandleGenerate 處理 /generate_recipe
func (h *Handler) HandleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err)
		return
	}
	if req.TopK < 0 {
		handlers.RespondError(c, common.ErrInvalidInput.WithMessage("top_k must not be negative"))
		return
	}

	res, err := h.generator.Generate(c.Request.Context(), req.SessionID, req.TopK)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// HandleGetMatchLog 處理 GET /match_logs/:id
func (h *Handler) HandleGetMatchLog(c *gin.Context) {
	if h.logs == nil {
		handlers.RespondError(c, common.ErrNotFound)
		return
	}
	entry, err := h.logs.Read(c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
