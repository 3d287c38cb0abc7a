package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
)

// CacheRouter stamps a default cache-control header on every response.
// Gallery pages and the JSON API must never be cached: a stale response
// could show deleted photos or an outdated permission set. The static
// uploads route manages its own headers.
type CacheRouter struct {
	CacheTime int // seconds; CacheNoCache forbids caching, CacheCustom leaves the header to the handler
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch cr.CacheTime {
		case CacheCustom:
		case CacheNoCache:
			c.Header("cache-control", "no-cache")
		default:
			c.Header("cache-control", "private, max-age="+strconv.Itoa(cr.CacheTime))
		}
		c.Next()
	}
}
