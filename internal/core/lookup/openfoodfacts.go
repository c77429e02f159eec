// Package lookup 依條碼查詢商品名稱與分類
package lookup

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pantry-matcher/internal/core/cache"
	"pantry-matcher/internal/pkg/common"
)

// DefaultBaseURL Open Food Facts 公開 API
const DefaultBaseURL = "https://world.openfoodfacts.org"

// Product 查詢結果
type Product struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Options 查詢客戶端設定
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	UserAgent     string
}

// Client Open Food Facts 客戶端
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	cache   cache.Cache[Product]
	timeout time.Duration
}

// offResponse /api/v0/product/{barcode}.json 的回應
type offResponse struct {
	Status        int    `json:"status"`
	StatusVerbose string `json:"status_verbose"`
	Product       *struct {
		ProductName string `json:"product_name"`
		Categories  string `json:"categories"`
	} `json:"product"`
}

// NewClient 創建查詢客戶端，productCache 可為 nil
func NewClient(opts Options, productCache cache.Cache[Product]) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 10
	}
	if opts.Burst <= 0 {
		opts.Burst = 5
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "pantry-matcher/1.0"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    client,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		cache:   productCache,
		timeout: opts.Timeout,
	}
}

// Lookup 查詢商品，任何傳輸錯誤都回傳 ErrProductNotFound
func (c *Client) Lookup(ctx context.Context, barcode string) (Product, error) {
	barcode = strings.TrimSpace(barcode)
	if !validBarcode(barcode) {
		return Product{}, common.ErrProductNotFound.WithMessage(fmt.Sprintf("invalid barcode %q", barcode))
	}

	if c.cache != nil {
		if p, ok := c.cache.Get(ctx, barcode); ok {
			return p, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		common.LogWarn("查詢限流等待失敗", zap.String("barcode", barcode), zap.Error(err))
		return Product{}, common.ErrProductNotFound.Wrap(err)
	}

	var body offResponse
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("/api/v0/product/%s.json", barcode))
	if err != nil {
		common.LogWarn("商品查詢失敗",
			zap.String("barcode", barcode),
			zap.Duration("耗時", time.Since(start)),
			zap.Error(err),
		)
		return Product{}, common.ErrProductNotFound.Wrap(err)
	}
	if resp.StatusCode() != http.StatusOK {
		common.LogWarn("商品查詢回傳錯誤狀態",
			zap.String("barcode", barcode),
			zap.Int("status", resp.StatusCode()),
		)
		return Product{}, common.ErrProductNotFound.Wrap(fmt.Errorf("status %d", resp.StatusCode()))
	}

	if body.Status != 1 || body.Product == nil {
		return Product{}, common.ErrProductNotFound
	}
	p := Product{
		Name:     strings.TrimSpace(body.Product.ProductName),
		Category: strings.TrimSpace(body.Product.Categories),
	}
	if p.Name == "" && p.Category == "" {
		return Product{}, common.ErrProductNotFound
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, barcode, p); err != nil {
			common.LogWarn("快取寫入失敗", zap.String("barcode", barcode), zap.Error(err))
		}
	}
	common.LogDebug("商品查詢成功",
		zap.String("barcode", barcode),
		zap.String("name", p.Name),
		zap.Duration("耗時", time.Since(start)),
	)
	return p, nil
}

// validBarcode 只接受 ASCII 英數字與連字號
func validBarcode(s string) bool {
	if len(s) < 4 || len(s) > 32 {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || (!unicode.IsDigit(r) && !unicode.IsLetter(r) && r != '-') {
			return false
		}
	}
	return true
}
