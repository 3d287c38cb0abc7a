package auth

import (
	"net/http"

	"memories/db"
	"memories/models"

	"github.com/gin-gonic/gin"
)

// Policy is the access level a route requires. Owner-or-admin rules need the
// entity and are enforced inside the handler, on top of PolicyAuthenticated.
type Policy uint8

const (
	PolicyNone Policy = iota // anonymous allowed; handler may still get the user
	PolicyAuthenticated
	PolicyAdmin
)

// HandlerFunc receives the authenticated user. With PolicyNone the pointer is
// nil for anonymous visitors.
type HandlerFunc func(c *gin.Context, user *models.User)

// Router registers every route together with its access policy and required
// permissions, evaluated before the handler runs.
type Router struct {
	Base *gin.Engine
}

func (r *Router) exec(c *gin.Context, handler HandlerFunc, policy Policy, required []models.Permission) {
	if policy != PolicyNone && !db.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data is temporarily unavailable"})
		return
	}
	user := LoadSession(c).User()
	if user.ID == 0 {
		if policy == PolicyNone {
			handler(c, nil)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if policy == PolicyAdmin && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}
	if !user.HasPermissions(required) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}
	handler(c, &user)
}

func (r *Router) GET(path string, handler HandlerFunc, policy Policy, required ...models.Permission) {
	r.Base.GET(path, func(c *gin.Context) {
		r.exec(c, handler, policy, required)
	})
}

func (r *Router) POST(path string, handler HandlerFunc, policy Policy, required ...models.Permission) {
	r.Base.POST(path, func(c *gin.Context) {
		r.exec(c, handler, policy, required)
	})
}

func (r *Router) PUT(path string, handler HandlerFunc, policy Policy, required ...models.Permission) {
	r.Base.PUT(path, func(c *gin.Context) {
		r.exec(c, handler, policy, required)
	})
}

func (r *Router) DELETE(path string, handler HandlerFunc, policy Policy, required ...models.Permission) {
	r.Base.DELETE(path, func(c *gin.Context) {
		r.exec(c, handler, policy, required)
	})
}
