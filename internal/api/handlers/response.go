package handlers

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry-matcher/internal/pkg/common"
)

// RespondError 將錯誤轉成 {error, code} 回應
func RespondError(c *gin.Context, err error) {
	status := common.StatusFor(err)
	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
	}
	if status >= 500 {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogDebug("請求處理失敗", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, common.ErrorResponse{
		Code:    common.CodeFor(err),
		Message: common.MessageFor(err),
	})
}

// BindJSON 解析 JSON 請求體
func BindJSON(c *gin.Context, v interface{}) error {
	if err := common.DecodeJSON(c.Request.Body, v); err != nil {
		return common.ErrInvalidInput.WithMessage("invalid request body").Wrap(err)
	}
	return nil
}
