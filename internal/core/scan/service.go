// Package scan 處理一批掃描：辨識條碼、查詢商品、追加到 session
package scan

import (
	"context"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"

	"pantry-matcher/internal/core/lookup"
	"pantry-matcher/internal/core/pantry"
	"pantry-matcher/internal/pkg/common"
)

// BarcodeDecoder 條碼辨識
type BarcodeDecoder interface {
	Decode(img image.Image) (string, error)
}

// ProductLookup 依條碼查詢商品
type ProductLookup interface {
	Lookup(ctx context.Context, barcode string) (lookup.Product, error)
}

// Item 批次中的一個項目，Image 與 Barcode 二擇一
type Item struct {
	Image   image.Image
	Barcode string
	// Err 上游解碼失敗時直接記為該項錯誤
	Err error
}

// Result 一批掃描的結果
type Result struct {
	SessionID string                 `json:"session_id"`
	Added     []common.ProductRecord `json:"added"`
	Errors    []common.ItemError     `json:"errors"`
	Pantry    []common.ProductRecord `json:"pantry"`
}

// Service 掃描服務
type Service struct {
	decoder BarcodeDecoder
	lookup  ProductLookup
	store   pantry.Store
	now     func() time.Time
}

// NewService 創建掃描服務
func NewService(decoder BarcodeDecoder, lookup ProductLookup, store pantry.Store) *Service {
	return &Service{
		decoder: decoder,
		lookup:  lookup,
		store:   store,
		now:     time.Now,
	}
}

// Scan 依序處理每個項目，單一項目失敗不影響其他項目
func (s *Service) Scan(ctx context.Context, sessionID string, items []Item) (*Result, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, common.ErrMissingSession
	}
	if len(items) == 0 {
		return nil, common.ErrEmptyBatch
	}

	res := &Result{
		SessionID: sessionID,
		Added:     []common.ProductRecord{},
		Errors:    []common.ItemError{},
	}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, common.ErrRequestCancelled.Wrap(err)
		}

		rec, err := s.scanOne(ctx, item)
		if err != nil {
			res.Errors = append(res.Errors, itemError(i, item.Barcode, err))
			continue
		}
		if err := s.store.Append(ctx, sessionID, rec); err != nil {
			// 儲存失敗視為整批失敗
			return nil, err
		}
		res.Added = append(res.Added, rec)
	}

	snapshot, err := s.store.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	res.Pantry = snapshot

	common.LogInfo("掃描完成",
		zap.String("session_id", sessionID),
		zap.Int("items", len(items)),
		zap.Int("added", len(res.Added)),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

// AddProduct 直接追加已知商品，不經查詢
func (s *Service) AddProduct(ctx context.Context, sessionID string, name, category, barcode string) (common.ProductRecord, error) {
	if strings.TrimSpace(sessionID) == "" {
		return common.ProductRecord{}, common.ErrMissingSession
	}
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" && category == "" {
		return common.ProductRecord{}, common.ErrInvalidInput.WithMessage("product_name or category is required")
	}
	rec := common.ProductRecord{
		Name:       name,
		Category:   category,
		Barcode:    strings.TrimSpace(barcode),
		CapturedAt: s.now().UTC(),
	}
	if err := s.store.Append(ctx, sessionID, rec); err != nil {
		return common.ProductRecord{}, err
	}
	return rec, nil
}

func (s *Service) scanOne(ctx context.Context, item Item) (common.ProductRecord, error) {
	if item.Err != nil {
		return common.ProductRecord{}, item.Err
	}

	code := strings.TrimSpace(item.Barcode)
	if code == "" {
		if item.Image == nil || s.decoder == nil {
			return common.ProductRecord{}, common.ErrBarcodeNotFound
		}
		decoded, err := s.decoder.Decode(item.Image)
		if err != nil {
			return common.ProductRecord{}, err
		}
		code = decoded
	}

	p, err := s.lookup.Lookup(ctx, code)
	if err != nil {
		return common.ProductRecord{Barcode: code}, withBarcode(err, code)
	}
	return common.ProductRecord{
		Name:       p.Name,
		Category:   p.Category,
		Barcode:    code,
		CapturedAt: s.now().UTC(),
	}, nil
}

// barcodeError 讓 itemError 取得解碼後的條碼
type barcodeError struct {
	error
	barcode string
}

func (e *barcodeError) Unwrap() error { return e.error }

func withBarcode(err error, code string) error {
	return &barcodeError{error: err, barcode: code}
}

func itemError(index int, barcode string, err error) common.ItemError {
	if be, ok := err.(*barcodeError); ok && barcode == "" {
		barcode = be.barcode
	}
	code, msg := common.CodeFor(err), common.MessageFor(err)
	if code == common.ErrCodeInternalError {
		// 單一項目的未知錯誤一律歸類為找不到
		code, msg = common.ErrCodeNotFound, err.Error()
	}
	return common.ItemError{
		Index:   index,
		Barcode: barcode,
		Code:    code,
		Message: msg,
	}
}
