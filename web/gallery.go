package web

import (
	"net/http"
	"strconv"

	"memories/db"
	"memories/handlers"
	"memories/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const galleryPageSize = 12

type navEntry struct {
	Title    string
	URL      string
	Children []navEntry
}

// navMenus assembles the two-level navigation tree from the menus table.
// Admin-only entries are dropped for everyone else.
func navMenus(user *models.User) []navEntry {
	menus, err := models.ActiveMenus()
	if err != nil {
		logrus.WithError(err).Warn("web: cannot load menus")
		return nil
	}
	admin := user != nil && user.IsAdmin()
	children := map[uint64][]navEntry{}
	for _, m := range menus {
		if m.ParentID == nil {
			continue
		}
		children[*m.ParentID] = append(children[*m.ParentID], navEntry{Title: m.Title, URL: m.URL})
	}
	var result []navEntry
	for _, m := range menus {
		if m.ParentID != nil {
			continue
		}
		if m.Title == "Admin" && !admin {
			continue
		}
		result = append(result, navEntry{Title: m.Title, URL: m.URL, Children: children[m.ID]})
	}
	return result
}

// GalleryView renders the home page: the paginated photo wall, readable
// without an account. When the database is down the page still renders
// with a banner instead of photos.
func GalleryView(c *gin.Context, user *models.User) {
	data := gin.H{
		"dbDown": !db.Available(),
		"member": c.Query("member"),
	}
	if user != nil {
		data["userName"] = user.DisplayName()
		data["canCreate"] = user.HasPermission(models.PermissionCreateMemory)
	}
	if !db.Available() {
		c.HTML(http.StatusOK, "gallery.tmpl", data)
		return
	}
	data["menus"] = navMenus(user)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	q := db.Instance.Preload("User").Order("date DESC")
	if member := c.Query("member"); member != "" {
		q = q.Joins("join users on users.id = memories.user_id").
			Where("users.full_name = ? or users.name = ?", member, member)
	}
	var memories []models.Memory
	if err := q.Offset((page - 1) * galleryPageSize).Limit(galleryPageSize + 1).Find(&memories).Error; err != nil {
		logrus.WithError(err).Error("web: gallery query failed")
		data["dbDown"] = true
		c.HTML(http.StatusOK, "gallery.tmpl", data)
		return
	}
	if len(memories) > galleryPageSize {
		memories = memories[:galleryPageSize]
		data["nextPage"] = page + 1
	}
	if page > 1 {
		data["prevPage"] = page - 1
	}
	photos := make([]handlers.PhotoView, 0, len(memories))
	for i := range memories {
		photos = append(photos, handlers.MemoryPhotoView(&memories[i]))
	}
	data["photos"] = photos
	c.HTML(http.StatusOK, "gallery.tmpl", data)
}

func LoginView(c *gin.Context, user *models.User) {
	if user != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "login.tmpl", gin.H{"dbDown": !db.Available()})
}

func RegisterView(c *gin.Context, user *models.User) {
	if user != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "register.tmpl", gin.H{"dbDown": !db.Available()})
}

func DisallowRobots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
}
