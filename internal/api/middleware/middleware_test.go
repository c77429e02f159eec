package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func post(r http.Handler, path, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerIP(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(2, time.Hour))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, post(r, "/x", "", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, post(r, "/x", "", "10.0.0.1").Code)
	w := post(r, "/x", "", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 其他 IP 不受影響
	assert.Equal(t, http.StatusOK, post(r, "/x", "", "10.0.0.2").Code)
}

func TestDeduplication(t *testing.T) {
	d := NewDeduplicator(time.Second)
	now := time.Unix(1000, 0)
	d.now = func() time.Time { return now }

	r := gin.New()
	r.Use(d.Handler())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, post(r, "/x", `{"a":1}`, "1.1.1.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(r, "/x", `{"a":1}`, "1.1.1.1").Code)
	assert.Equal(t, http.StatusOK, post(r, "/x", `{"a":2}`, "1.1.1.1").Code)

	now = now.Add(2 * time.Second)
	assert.Equal(t, http.StatusOK, post(r, "/x", `{"a":1}`, "1.1.1.1").Code)
}

func TestBodySizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodySizeLimit(4))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, post(r, "/x", "abc", "1.1.1.1").Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, post(r, "/x", "abcdefgh", "1.1.1.1").Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.POST("/x", func(c *gin.Context) { panic("boom") })

	w := post(r, "/x", "", "1.1.1.1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}
