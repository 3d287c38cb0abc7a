package handlers

import (
	"errors"
	"net/http"
	"strings"

	"memories/db"
	"memories/models"
	"memories/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"
)

type AdminUserInfo struct {
	ID          uint64                `json:"id"`
	Name        string                `json:"name"`
	Email       string                `json:"email"`
	FullName    string                `json:"fullName"`
	Active      bool                  `json:"active"`
	Roles       []string              `json:"roles"`
	Permissions models.PermissionList `json:"permissions"`
	Effective   models.PermissionList `json:"effectivePermissions"`
}

func adminUserInfo(u *models.User) AdminUserInfo {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Name)
	}
	return AdminUserInfo{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		FullName:    u.FullName,
		Active:      u.Active,
		Roles:       roles,
		Permissions: u.Permissions,
		Effective:   u.EffectivePermissions(),
	}
}

func AdminUserList(c *gin.Context, _ *models.User) {
	var users []models.User
	if err := db.Instance.Preload("Roles").Order("name ASC").Find(&users).Error; err != nil {
		internalError(c, "admin: user list failed", err)
		return
	}
	result := make([]AdminUserInfo, 0, len(users))
	for i := range users {
		result = append(result, adminUserInfo(&users[i]))
	}
	c.JSON(http.StatusOK, result)
}

type AdminUserSaveRequest struct {
	ID       uint64 `form:"id"`
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email"`
	FullName string `form:"full_name"`
	Password string `form:"password"` // required on create, optional on update
	Active   *bool  `form:"active"`
}

func AdminUserSave(c *gin.Context, _ *models.User) {
	req := AdminUserSaveRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	if req.ID == 0 {
		if req.Password == "" {
			c.JSON(http.StatusBadRequest, Response{Error: "password is required"})
			return
		}
		userRole, err := models.RoleByName(models.RoleUser)
		if err != nil {
			internalError(c, "admin: default role missing", err)
			return
		}
		user, err := models.UserCreate(req.Name, req.Email, req.FullName, req.Password, userRole)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Error: "cannot create user, is the name taken?"})
			return
		}
		c.JSON(http.StatusCreated, adminUserInfo(&user))
		return
	}
	user, err := models.UserByID(req.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	user.Name = req.Name
	user.Email = req.Email
	user.FullName = req.FullName
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.Password != "" {
		if err := user.SetPassword(req.Password); err != nil {
			c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
			return
		}
	}
	if err := db.Instance.Save(&user).Error; err != nil {
		internalError(c, "admin: user save failed", err)
		return
	}
	c.JSON(http.StatusOK, adminUserInfo(&user))
}

type idRequest struct {
	ID uint64 `form:"id" binding:"required"`
}

// AdminUserDelete enforces the deletion safety rules: never the signed-in
// account, never the last remaining Admin. The user's memories and their
// stored photos go with the account.
func AdminUserDelete(c *gin.Context, current *models.User) {
	req := idRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	target, err := models.UserByID(req.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	var memories []models.Memory
	if err := db.Instance.Where("user_id = ?", target.ID).Find(&memories).Error; err != nil {
		internalError(c, "admin: user delete failed", err)
		return
	}
	if err := models.UserDelete(&target, current); err != nil {
		if errors.Is(err, models.ErrLastAdmin) || errors.Is(err, models.ErrSelfDelete) {
			c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
			return
		}
		internalError(c, "admin: user delete failed", err)
		return
	}
	// SQLite does not enforce the FK cascade, so remove each memory row
	// explicitly, each followed by its stored objects.
	for i := range memories {
		if err := deleteMemory(&memories[i]); err != nil {
			logrus.WithError(err).WithField("memory", memories[i].ID).
				Warn("admin: orphaned memory row not removed")
		}
	}
	c.JSON(http.StatusOK, OKResponse)
}

type permissionsRequest struct {
	ID          uint64   `form:"id" binding:"required"`
	Permissions []string `form:"permissions[]"`
}

// AdminUserPermissions replaces a user's individually granted permissions.
func AdminUserPermissions(c *gin.Context, _ *models.User) {
	req := permissionsRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	perms, err := models.ParsePermissions(req.Permissions)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	user, err := models.UserByID(req.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	if err := db.Instance.Model(&user).Update("permissions", perms).Error; err != nil {
		internalError(c, "admin: user permissions save failed", err)
		return
	}
	user.Permissions = perms
	c.JSON(http.StatusOK, adminUserInfo(&user))
}

type userRolesRequest struct {
	ID    uint64   `form:"id" binding:"required"`
	Roles []string `form:"roles[]"`
}

// AdminUserRoles replaces a user's role assignments. Removing the last
// admin's Admin role is rejected for the same reason as deleting them.
func AdminUserRoles(c *gin.Context, _ *models.User) {
	req := userRolesRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	user, err := models.UserByID(req.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	var roles []models.Role
	if len(req.Roles) > 0 {
		if err := db.Instance.Where("name in ?", req.Roles).Find(&roles).Error; err != nil {
			internalError(c, "admin: roles lookup failed", err)
			return
		}
		if len(roles) != len(req.Roles) {
			c.JSON(http.StatusBadRequest, Response{Error: "unknown role in list"})
			return
		}
	}
	keepsAdmin := false
	for _, r := range roles {
		if r.Name == models.RoleAdmin {
			keepsAdmin = true
		}
	}
	if user.IsAdmin() && !keepsAdmin {
		admins, err := models.AdminCount()
		if err != nil {
			internalError(c, "admin: admin count failed", err)
			return
		}
		if admins <= 1 {
			c.JSON(http.StatusBadRequest, Response{Error: models.ErrLastAdmin.Error()})
			return
		}
	}
	if err := db.Instance.Model(&user).Association("Roles").Replace(roles); err != nil {
		internalError(c, "admin: user roles save failed", err)
		return
	}
	user.Roles = roles
	c.JSON(http.StatusOK, adminUserInfo(&user))
}

type AdminRoleInfo struct {
	ID          uint64                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Permissions models.PermissionList `json:"permissions"`
}

func AdminRoleList(c *gin.Context, _ *models.User) {
	var roles []models.Role
	if err := db.Instance.Order("name ASC").Find(&roles).Error; err != nil {
		internalError(c, "admin: role list failed", err)
		return
	}
	result := make([]AdminRoleInfo, 0, len(roles))
	for _, r := range roles {
		result = append(result, AdminRoleInfo{ID: r.ID, Name: r.Name, Description: r.Description, Permissions: r.Permissions})
	}
	c.JSON(http.StatusOK, result)
}

type AdminRoleSaveRequest struct {
	ID          uint64 `form:"id"`
	Name        string `form:"name" binding:"required"`
	Description string `form:"description"`
}

func AdminRoleSave(c *gin.Context, _ *models.User) {
	req := AdminRoleSaveRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	role := models.Role{}
	if req.ID != 0 {
		if db.Instance.First(&role, req.ID).Error != nil {
			c.JSON(http.StatusNotFound, NotFoundResponse)
			return
		}
		if role.Name == models.RoleAdmin && req.Name != models.RoleAdmin {
			c.JSON(http.StatusBadRequest, Response{Error: "the Admin role cannot be renamed"})
			return
		}
	} else {
		role.Permissions = models.PermissionList{}
	}
	role.Name = strings.TrimSpace(req.Name)
	role.Description = req.Description
	if err := db.Instance.Save(&role).Error; err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "cannot save role, is the name taken?"})
		return
	}
	c.JSON(http.StatusOK, AdminRoleInfo{ID: role.ID, Name: role.Name, Description: role.Description, Permissions: role.Permissions})
}

func AdminRoleDelete(c *gin.Context, _ *models.User) {
	req := idRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	var role models.Role
	if db.Instance.First(&role, req.ID).Error != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	if role.Name == models.RoleAdmin {
		c.JSON(http.StatusBadRequest, Response{Error: "the Admin role cannot be deleted"})
		return
	}
	if err := db.Instance.Model(&role).Association("Users").Clear(); err != nil {
		internalError(c, "admin: role delete failed", err)
		return
	}
	if err := db.Instance.Delete(&role).Error; err != nil {
		internalError(c, "admin: role delete failed", err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

// AdminRolePermissions replaces the permission list granted by a role.
func AdminRolePermissions(c *gin.Context, _ *models.User) {
	req := permissionsRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	perms, err := models.ParsePermissions(req.Permissions)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	var role models.Role
	if db.Instance.First(&role, req.ID).Error != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	if err := db.Instance.Model(&role).Update("permissions", perms).Error; err != nil {
		internalError(c, "admin: role permissions save failed", err)
		return
	}
	role.Permissions = perms
	c.JSON(http.StatusOK, AdminRoleInfo{ID: role.ID, Name: role.Name, Description: role.Description, Permissions: role.Permissions})
}

func AdminMenuList(c *gin.Context, _ *models.User) {
	var menus []models.Menu
	if err := db.Instance.Order("sort_order ASC, id ASC").Find(&menus).Error; err != nil {
		internalError(c, "admin: menu list failed", err)
		return
	}
	c.JSON(http.StatusOK, menus)
}

type AdminMenuSaveRequest struct {
	ID        uint64  `form:"id"`
	Title     string  `form:"title" binding:"required"`
	URL       string  `form:"url"`
	ParentID  *uint64 `form:"parent_id"`
	SortOrder int     `form:"sort_order"`
	Active    *bool   `form:"active"`
}

func AdminMenuSave(c *gin.Context, _ *models.User) {
	req := AdminMenuSaveRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	menu := models.Menu{Active: true}
	if req.ID != 0 {
		if db.Instance.First(&menu, req.ID).Error != nil {
			c.JSON(http.StatusNotFound, NotFoundResponse)
			return
		}
	}
	if req.ParentID != nil && *req.ParentID != 0 {
		if *req.ParentID == req.ID {
			c.JSON(http.StatusBadRequest, Response{Error: "a menu cannot be its own parent"})
			return
		}
		var parent models.Menu
		if db.Instance.First(&parent, *req.ParentID).Error != nil {
			c.JSON(http.StatusBadRequest, Response{Error: "parent menu not found"})
			return
		}
		menu.ParentID = req.ParentID
	} else {
		menu.ParentID = nil
	}
	menu.Title = req.Title
	menu.URL = req.URL
	menu.SortOrder = req.SortOrder
	if req.Active != nil {
		menu.Active = *req.Active
	}
	if err := db.Instance.Save(&menu).Error; err != nil {
		internalError(c, "admin: menu save failed", err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

func AdminMenuDelete(c *gin.Context, _ *models.User) {
	req := idRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	if err := db.Instance.Model(&models.Menu{}).Where("parent_id = ?", req.ID).Update("parent_id", nil).Error; err != nil {
		internalError(c, "admin: menu delete failed", err)
		return
	}
	result := db.Instance.Delete(&models.Menu{}, req.ID)
	if result.Error != nil {
		internalError(c, "admin: menu delete failed", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

// AdminMemoryList is the content backoffice: all memories, newest first.
func AdminMemoryList(c *gin.Context, _ *models.User) {
	page, pageSize := pageParams(c)
	var memories []models.Memory
	err := db.Instance.Preload("User").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&memories).Error
	if err != nil {
		internalError(c, "admin: memory list failed", err)
		return
	}
	result := make([]PhotoView, 0, len(memories))
	for i := range memories {
		result = append(result, MemoryPhotoView(&memories[i]))
	}
	c.JSON(http.StatusOK, result)
}

func AdminMemoryDelete(c *gin.Context, _ *models.User) {
	req := idRequest{}
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	var memory models.Memory
	if db.Instance.First(&memory, req.ID).Error != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	if err := deleteMemory(&memory); err != nil {
		internalError(c, "admin: memory delete failed", err)
		return
	}
	c.JSON(http.StatusOK, OKResponse)
}

// AdminStorageStatus reports the active backend and, for local disk, capacity.
func AdminStorageStatus(c *gin.Context, _ *models.User) {
	info := gin.H{"type": "remote"}
	if reporter, ok := storage.Default().(storage.SpaceReporter); ok {
		info["type"] = "local"
		info["totalSpace"] = reporter.TotalSpace()
		info["freeSpace"] = reporter.FreeSpace()
	}
	c.JSON(http.StatusOK, info)
}
