package api

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-matcher/internal/core/audit"
	imageService "pantry-matcher/internal/core/image"
	"pantry-matcher/internal/core/lookup"
	"pantry-matcher/internal/core/pantry"
	"pantry-matcher/internal/core/recipe"
	"pantry-matcher/internal/core/scan"
	"pantry-matcher/internal/infrastructure/config"
	"pantry-matcher/internal/pkg/common"
)

type stubLookup map[string]lookup.Product

func (l stubLookup) Lookup(ctx context.Context, barcode string) (lookup.Product, error) {
	if p, ok := l[barcode]; ok {
		return p, nil
	}
	return lookup.Product{}, common.ErrProductNotFound
}

type stubCatalog struct {
	recipes []common.Recipe
	err     error
}

func (c *stubCatalog) ListRecipes(ctx context.Context) ([]common.Recipe, error) {
	return c.recipes, c.err
}

func (c *stubCatalog) Ping(ctx context.Context) error { return c.err }

type memoryAudit struct {
	n       int
	entries map[string]*audit.Entry
}

func (a *memoryAudit) Record(ctx context.Context, sessionID string, matches []common.MatchResult) (string, error) {
	a.n++
	id := sessionID + "_log"
	a.entries[id] = &audit.Entry{ID: id, SessionID: sessionID, Matches: matches}
	return id, nil
}

func (a *memoryAudit) Read(id string) (*audit.Entry, error) {
	if e, ok := a.entries[id]; ok {
		return e, nil
	}
	return nil, common.ErrNotFound
}

type blankDecoder struct{}

func (blankDecoder) Decode(img image.Image) (string, error) {
	return "", common.ErrBarcodeNotFound
}

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Version: "test"},
		Server:      config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		DedupWindow: time.Second,
	}
}

func newTestRouter(t *testing.T, catalog *stubCatalog) (*gin.Engine, *memoryAudit) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := pantry.NewMemoryStore()
	auditLog := &memoryAudit{entries: map[string]*audit.Entry{}}
	scanner := scan.NewService(blankDecoder{}, stubLookup{
		"111": {Name: "Eggs", Category: "Dairy"},
		"222": {Name: "Whole Milk", Category: "Dairy"},
	}, store)
	generator := recipe.NewService(store, catalog, auditLog, recipe.NewEngine(nil, nil), 2)

	r := SetupRouter(testConfig(), Dependencies{
		Scanner:   scanner,
		Images:    imageService.NewService(0),
		Store:     store,
		Generator: generator,
		Logs:      auditLog,
		Catalog:   catalog,
	})
	return r, auditLog
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScanAndGenerate(t *testing.T) {
	catalog := &stubCatalog{recipes: []common.Recipe{
		{ID: 1, Title: "Omelette", Ingredients: "2 large eggs, 1 cup milk, salt", Instructions: "Whisk and cook."},
		{ID: 2, Title: "Toast", Ingredients: "bread, butter", Instructions: "Toast it."},
	}}
	r, auditLog := newTestRouter(t, catalog)

	w := doJSON(r, http.MethodPost, "/scan", `{"session_id":"s1","barcodes":["111","222","999"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var scanRes scan.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scanRes))
	assert.Len(t, scanRes.Added, 2)
	require.Len(t, scanRes.Errors, 1)
	assert.Equal(t, "999", scanRes.Errors[0].Barcode)
	assert.Equal(t, common.ErrCodeNotFound, scanRes.Errors[0].Code)

	w = doJSON(r, http.MethodPost, "/api/v1/generate_recipe", `{"session_id":"s1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var genRes recipe.GenerateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &genRes))
	require.Len(t, genRes.Matches, 1)
	assert.Equal(t, "Omelette", genRes.Matches[0].Title)
	assert.Equal(t, 2, genRes.Matches[0].MatchingCount)
	assert.Equal(t, 3, genRes.Matches[0].TotalCount)
	assert.Equal(t, "s1_log", genRes.LogFile)
	assert.Equal(t, 1, auditLog.n)

	w = doJSON(r, http.MethodGet, "/api/v1/match_logs/s1_log", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Omelette")

	w = doJSON(r, http.MethodGet, "/api/v1/match_logs/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScanMultipart(t *testing.T) {
	r, _ := newTestRouter(t, &stubCatalog{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("session_id", "s2"))
	part, err := mw.CreateFormFile("images", "blank.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, image.NewGray(image.Rect(0, 0, 8, 8))))
	part, err = mw.CreateFormFile("images", "garbage.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("not an image"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/scan", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res scan.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Empty(t, res.Added)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, common.ErrCodeNotFound, res.Errors[0].Code)
	assert.Equal(t, common.ErrCodeInvalidInput, res.Errors[1].Code)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		catalog *stubCatalog
		path    string
		body    string
		status  int
		code    string
	}{
		{"scan missing session", &stubCatalog{}, "/scan", `{"barcodes":["111"]}`, http.StatusBadRequest, common.ErrCodeInvalidInput},
		{"scan empty batch", &stubCatalog{}, "/scan", `{"session_id":"s"}`, http.StatusBadRequest, common.ErrCodeInvalidInput},
		{"scan malformed", &stubCatalog{}, "/scan", `{`, http.StatusBadRequest, common.ErrCodeInvalidInput},
		{"generate missing session", &stubCatalog{}, "/generate_recipe", `{}`, http.StatusBadRequest, common.ErrCodeInvalidInput},
		{"generate negative top_k", &stubCatalog{}, "/generate_recipe", `{"session_id":"s","top_k":-1}`, http.StatusBadRequest, common.ErrCodeInvalidInput},
		{"catalog down", &stubCatalog{err: errors.New("db locked")}, "/generate_recipe", `{"session_id":"s"}`, http.StatusServiceUnavailable, common.ErrCodeCatalogUnavailable},
		{"add product empty", &stubCatalog{}, "/add_product", `{"session_id":"s"}`, http.StatusBadRequest, common.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, tt.catalog)
			w := doJSON(r, http.MethodPost, tt.path, tt.body)

			assert.Equal(t, tt.status, w.Code)
			var resp common.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestAddProductAndPantry(t *testing.T) {
	r, _ := newTestRouter(t, &stubCatalog{})

	w := doJSON(r, http.MethodPost, "/add_product", `{"session_id":"s3","product_name":"Cheddar","category":"Cheese","barcode":"333"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/v1/pantry/s3", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Products []common.ProductRecord `json:"products"`
		Count    int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Cheddar", resp.Products[0].Name)
}

func TestGenerateDeduplicated(t *testing.T) {
	r, _ := newTestRouter(t, &stubCatalog{})

	body := `{"session_id":"dup"}`
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/generate_recipe", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, doJSON(r, http.MethodPost, "/generate_recipe", body).Code)
}

func TestHealthRoutes(t *testing.T) {
	r, _ := newTestRouter(t, &stubCatalog{})
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/live", "").Code)

	down, _ := newTestRouter(t, &stubCatalog{err: errors.New("closed")})
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(down, http.MethodGet, "/ready", "").Code)
}
