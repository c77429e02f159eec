package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"error"`             // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼判斷是否為同一類錯誤
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap 以相同代碼包裝原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: e.Message,
		Status:  e.Status,
		Err:     err,
	}
}

// WithMessage 以相同代碼替換錯誤信息
func (e *CustomError) WithMessage(message string) *CustomError {
	return &CustomError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
		Err:     e.Err,
	}
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidInput    = "INVALID_INPUT"     // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeCatalogUnavailable = "CATALOG_UNAVAILABLE" // 503
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504

	// 非致命
	ErrCodeFormattingDegraded = "FORMATTING_DEGRADED"
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidInput     = NewError(ErrCodeInvalidInput, "invalid input", http.StatusBadRequest, nil)
	ErrMissingSession   = NewError(ErrCodeInvalidInput, "session_id is required", http.StatusBadRequest, nil)
	ErrEmptyBatch       = NewError(ErrCodeInvalidInput, "scan batch is empty", http.StatusBadRequest, nil)
	ErrNotFound         = NewError(ErrCodeNotFound, "not found", http.StatusNotFound, nil)
	ErrBarcodeNotFound  = NewError(ErrCodeNotFound, "barcode not detected", http.StatusNotFound, nil)
	ErrProductNotFound  = NewError(ErrCodeNotFound, "product not found in catalog", http.StatusNotFound, nil)
	ErrTooManyRequests  = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)
	ErrRequestCancelled = NewError(ErrCodeRequestTimeout, "request cancelled", http.StatusRequestTimeout, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)
	ErrCatalogUnavailable = NewError(ErrCodeCatalogUnavailable, "recipe catalog unavailable", http.StatusServiceUnavailable, nil)
	ErrStoreUnavailable   = NewError(ErrCodeServiceUnavailable, "pantry store unavailable", http.StatusServiceUnavailable, nil)

	// 非致命錯誤
	ErrFormattingDegraded = NewError(ErrCodeFormattingDegraded, "instruction formatting failed", http.StatusOK, nil)
)

// StatusFor 取得錯誤對應的 HTTP 狀態碼
func StatusFor(err error) int {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Status
	}
	return http.StatusInternalServerError
}

// CodeFor 取得錯誤對應的錯誤代碼
func CodeFor(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternalError
}

// MessageFor 取得對外顯示的錯誤信息
func MessageFor(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return ErrInternalError.Message
}
