// Package pantry 提供掃描與 session 商品相關的 HTTP 處理器
package pantry

import (
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry-matcher/internal/api/handlers"
	pantryStore "pantry-matcher/internal/core/pantry"
	"pantry-matcher/internal/core/scan"
	"pantry-matcher/internal/pkg/common"
)

// ImageDecoder 圖片解碼
type ImageDecoder interface {
	Decode(data []byte) (image.Image, error)
	DecodeDataURL(imageData string) (image.Image, error)
}

// Scanner 掃描服務
type Scanner interface {
	Scan(ctx context.Context, sessionID string, items []scan.Item) (*scan.Result, error)
	AddProduct(ctx context.Context, sessionID string, name, category, barcode string) (common.ProductRecord, error)
}

// ScanRequest JSON 掃描請求
type ScanRequest struct {
	SessionID string   `json:"session_id"`
	Barcodes  []string `json:"barcodes,omitempty"`
	Images    []string `json:"images,omitempty"` // base64 或 data URL
}

// AddProductRequest 直接新增商品請求
type AddProductRequest struct {
	SessionID   string `json:"session_id"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
	Barcode     string `json:"barcode"`
}

// PantryResponse session 目前的商品
type PantryResponse struct {
	SessionID string                 `json:"session_id"`
	Products  []common.ProductRecord `json:"products"`
	Count     int                    `json:"count"`
}

// Handler 掃描處理器
type Handler struct {
	scanner Scanner
	images  ImageDecoder
	store   pantryStore.Store
}

// NewHandler 創建掃描處理器
func NewHandler(scanner Scanner, images ImageDecoder, store pantryStore.Store) *Handler {
	return &Handler{scanner: scanner, images: images, store: store}
}

// HandleScan 處理 /scan，支援 multipart 圖片上傳與 JSON
func (h *Handler) HandleScan(c *gin.Context) {
	var (
		sessionID string
		items     []scan.Item
		err       error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		sessionID, items, err = h.multipartItems(c)
	} else {
		sessionID, items, err = h.jsonItems(c)
	}
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	res, err := h.scanner.Scan(c.Request.Context(), sessionID, items)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// HandleAddProduct 處理 /add_product
func (h *Handler) HandleAddProduct(c *gin.Context) {
	var req AddProductRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err)
		return
	}

	rec, err := h.scanner.AddProduct(c.Request.Context(), req.SessionID, req.ProductName, req.Category, req.Barcode)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("新增商品",
		zap.String("session_id", req.SessionID),
		zap.String("product", rec.Name),
	)
	c.JSON(http.StatusOK, gin.H{
		"message": "Product added",
		"product": rec,
	})
}

// HandleGetPantry 處理 GET /pantry/:session_id
func (h *Handler) HandleGetPantry(c *gin.Context) {
	sessionID := c.Param("session_id")
	products, err := h.store.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PantryResponse{
		SessionID: sessionID,
		Products:  products,
		Count:     len(products),
	})
}

func (h *Handler) jsonItems(c *gin.Context) (string, []scan.Item, error) {
	var req ScanRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		return "", nil, err
	}

	items := make([]scan.Item, 0, len(req.Barcodes)+len(req.Images))
	for _, code := range req.Barcodes {
		items = append(items, scan.Item{Barcode: code})
	}
	for _, data := range req.Images {
		img, err := h.images.DecodeDataURL(data)
		items = append(items, scan.Item{Image: img, Err: err})
	}
	return req.SessionID, items, nil
}

func (h *Handler) multipartItems(c *gin.Context) (string, []scan.Item, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return "", nil, common.ErrInvalidInput.WithMessage("invalid multipart form").Wrap(err)
	}

	sessionID := firstValue(form.Value["session_id"])
	var files []*multipart.FileHeader
	files = append(files, form.File["images"]...)
	files = append(files, form.File["image"]...)

	items := make([]scan.Item, 0, len(files)+len(form.Value["barcodes"]))
	for _, code := range form.Value["barcodes"] {
		items = append(items, scan.Item{Barcode: code})
	}
	for _, fh := range files {
		img, err := h.decodeFile(fh)
		if err != nil {
			common.LogWarn("圖片解碼失敗",
				zap.String("filename", fh.Filename),
				zap.Error(err),
			)
		}
		items = append(items, scan.Item{Image: img, Err: err})
	}
	return sessionID, items, nil
}

func (h *Handler) decodeFile(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, common.ErrInvalidInput.WithMessage(fmt.Sprintf("cannot open %s", fh.Filename)).Wrap(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, common.ErrInvalidInput.WithMessage(fmt.Sprintf("cannot read %s", fh.Filename)).Wrap(err)
	}
	return h.images.Decode(data)
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
