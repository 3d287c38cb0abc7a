package handlers

import (
	"net/http"
	"strings"

	"memories/auth"
	"memories/db"
	"memories/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type UserLoginRequest struct {
	Name     string `form:"name" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type UserRegisterRequest struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required"`
	FullName string `form:"full_name"`
	Password string `form:"password" binding:"required"`
}

func UserLogin(c *gin.Context, _ *models.User) {
	if !db.Available() {
		c.JSON(http.StatusServiceUnavailable, DBUnavailableResponse)
		return
	}
	req := UserLoginRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	user, ok := models.UserLogin(req.Name, req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{Error: "wrong user or password"})
		return
	}
	auth.LoadSession(c).LoginUser(user.ID)
	if c.PostForm("redirect") != "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"error":       "",
		"name":        user.DisplayName(),
		"permissions": user.EffectivePermissions(),
	})
}

func UserLogout(c *gin.Context, _ *models.User) {
	auth.LoadSession(c).LogoutUser()
	if c.PostForm("redirect") != "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

// UserRegister creates an account with the default "User" role and signs it in.
func UserRegister(c *gin.Context, _ *models.User) {
	if !db.Available() {
		c.JSON(http.StatusServiceUnavailable, DBUnavailableResponse)
		return
	}
	req := UserRegisterRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	var existing models.User
	if db.Instance.First(&existing, "name = ?", name).Error == nil {
		c.JSON(http.StatusBadRequest, Response{Error: "this user name is taken"})
		return
	}
	userRole, err := models.RoleByName(models.RoleUser)
	if err != nil {
		internalError(c, "register: default role missing", err)
		return
	}
	user, err := models.UserCreate(name, req.Email, req.FullName, req.Password, userRole)
	if err != nil {
		internalError(c, "register: cannot create user", err)
		return
	}
	auth.LoadSession(c).LoginUser(user.ID)
	if c.PostForm("redirect") != "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"error": "", "id": user.ID, "name": user.DisplayName()})
}

// UserStatus reports the signed-in account and its effective permission set.
func UserStatus(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, gin.H{
		"error":       "",
		"id":          user.ID,
		"name":        user.DisplayName(),
		"admin":       user.IsAdmin(),
		"permissions": user.EffectivePermissions(),
	})
}
