package main

import (
	"strings"
	"time"

	"memories/auth"
	"memories/config"
	"memories/db"
	"memories/handlers"
	"memories/models"
	"memories/storage"
	"memories/utils"
	"memories/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	sessionCookieName     = "token"
	sessionExpirationTime = 365 * 86400 // 1 year
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("cannot load configuration")
	}
	if cfg.DebugMode {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// A down database is not fatal: the gallery still renders with a banner
	// and everything else answers 503 until it comes back.
	if err := db.Init(cfg.MySQLDSN, cfg.SQLiteFile, cfg.DebugMode); err != nil {
		logrus.WithError(err).Error("starting without a database")
	}
	if db.Available() {
		if err := models.Init(); err != nil {
			logrus.WithError(err).Fatal("schema migration failed")
		}
		if err := models.Seed(cfg.AdminPassword); err != nil {
			logrus.WithError(err).Fatal("seeding failed")
		}
	}
	if err := storage.Init(cfg); err != nil {
		logrus.WithError(err).Fatal("storage init failed")
	}

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	_ = router.SetTrustedProxies([]string{})
	if cfg.DebugMode {
		router.Use(utils.ErrorLogMiddleware)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"PUT", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))

	router.LoadHTMLGlob("templates/*.tmpl")

	// Sessions live in the DB so they survive restarts; fall back to an
	// in-cookie store when the DB is down so sign-in works once it is back.
	var sessionStore sessions.Store
	if db.Available() {
		store := gormsessions.NewStore(db.Instance, true, []byte(cfg.SessionKey))
		store.Options(sessions.Options{MaxAge: sessionExpirationTime})
		sessionStore = store
	} else {
		store := cookie.NewStore([]byte(cfg.SessionKey))
		store.Options(sessions.Options{MaxAge: sessionExpirationTime})
		sessionStore = store
	}
	router.Use(sessions.Sessions(sessionCookieName, sessionStore))
	if !cfg.DebugMode {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/uploads"})))
	}
	router.Use((&utils.CacheRouter{CacheTime: utils.CacheNoCache}).Handler()) // No cache by default, individual end-points can override that

	// Locally stored photos are served directly
	if disk, ok := storage.Default().(*storage.DiskStorage); ok {
		router.Static(cfg.UploadsBaseURL, disk.BaseDir())
	}

	authRouter := &auth.Router{Base: router}
	// Web pages
	authRouter.GET("/", web.GalleryView, auth.PolicyNone)
	authRouter.GET("/account/login", web.LoginView, auth.PolicyNone)
	authRouter.GET("/account/register", web.RegisterView, auth.PolicyNone)
	router.GET("/robots.txt", web.DisallowRobots)
	// Account handlers
	authRouter.POST("/account/login", handlers.UserLogin, auth.PolicyNone)
	authRouter.POST("/account/logout", handlers.UserLogout, auth.PolicyNone)
	authRouter.POST("/account/register", handlers.UserRegister, auth.PolicyNone)
	authRouter.GET("/api/user/status", handlers.UserStatus, auth.PolicyAuthenticated)
	// Memory handlers; editing is owner-or-admin, checked in the handlers
	authRouter.GET("/api/memories", handlers.MemoryList, auth.PolicyNone)
	authRouter.GET("/api/memories/:id", handlers.MemoryGet, auth.PolicyNone)
	authRouter.POST("/api/memories", handlers.MemoryCreate, auth.PolicyAuthenticated, models.PermissionCreateMemory)
	authRouter.PUT("/api/memories/:id", handlers.MemoryUpdate, auth.PolicyAuthenticated, models.PermissionEditMemory)
	authRouter.DELETE("/api/memories/:id", handlers.MemoryDelete, auth.PolicyAuthenticated, models.PermissionDeleteMemory)
	// Admin area
	authRouter.GET("/admin/users", handlers.AdminUserList, auth.PolicyAdmin)
	authRouter.POST("/admin/user/save", handlers.AdminUserSave, auth.PolicyAdmin)
	authRouter.POST("/admin/user/delete", handlers.AdminUserDelete, auth.PolicyAdmin)
	authRouter.POST("/admin/user/permissions", handlers.AdminUserPermissions, auth.PolicyAdmin)
	authRouter.POST("/admin/user/roles", handlers.AdminUserRoles, auth.PolicyAdmin)
	authRouter.GET("/admin/roles", handlers.AdminRoleList, auth.PolicyAdmin)
	authRouter.POST("/admin/role/save", handlers.AdminRoleSave, auth.PolicyAdmin)
	authRouter.POST("/admin/role/delete", handlers.AdminRoleDelete, auth.PolicyAdmin)
	authRouter.POST("/admin/role/permissions", handlers.AdminRolePermissions, auth.PolicyAdmin)
	authRouter.GET("/admin/menus", handlers.AdminMenuList, auth.PolicyAdmin)
	authRouter.POST("/admin/menu/save", handlers.AdminMenuSave, auth.PolicyAdmin)
	authRouter.POST("/admin/menu/delete", handlers.AdminMenuDelete, auth.PolicyAdmin)
	authRouter.GET("/admin/memories", handlers.AdminMemoryList, auth.PolicyAdmin, models.PermissionManageMemoriesBackoffice)
	authRouter.POST("/admin/memory/delete", handlers.AdminMemoryDelete, auth.PolicyAdmin, models.PermissionManageMemoriesBackoffice)
	authRouter.GET("/admin/storage", handlers.AdminStorageStatus, auth.PolicyAdmin)

	if cfg.TLSDomains != "" {
		err = autotls.Run(router, strings.Split(cfg.TLSDomains, ",")...)
	} else {
		err = router.Run(cfg.BindAddress)
	}
	logrus.WithError(err).Fatal("server stopped")
}
