package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func cacheHeader(t *testing.T, cacheTime int, handler gin.HandlerFunc) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use((&CacheRouter{CacheTime: cacheTime}).Handler())
	engine.GET("/", handler)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w.Header().Get("cache-control")
}

func TestCacheRouter(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	assert.Equal(t, "no-cache", cacheHeader(t, CacheNoCache, ok))
	assert.Equal(t, "private, max-age=3600", cacheHeader(t, 3600, ok))
	assert.Empty(t, cacheHeader(t, CacheCustom, ok))

	// CacheCustom means the handler owns the header
	custom := func(c *gin.Context) {
		c.Header("cache-control", "public, max-age=60")
		c.Status(http.StatusOK)
	}
	assert.Equal(t, "public, max-age=60", cacheHeader(t, CacheCustom, custom))
}
