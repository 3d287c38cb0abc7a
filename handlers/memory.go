package handlers

import (
	"bytes"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"memories/db"
	"memories/models"
	"memories/storage"
	"memories/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const thumbBound = 1280

type PhotoView struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD
	ImageURL    string `json:"imageUrl"`
	ThumbURL    string `json:"thumbUrl,omitempty"`
	Member      string `json:"member"`
	UserID      uint64 `json:"userId"`
}

func MemoryPhotoView(m *models.Memory) PhotoView {
	return PhotoView{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Date:        m.Date.UTC().Format("2006-01-02"),
		ImageURL:    m.ImageRef,
		ThumbURL:    m.ThumbRef,
		Member:      m.OwnerDisplayName(),
		UserID:      m.UserID,
	}
}

// MemoryList is public: the gallery is readable without an account.
// Supports pagination and filtering by member (full name or login name).
func MemoryList(c *gin.Context, _ *models.User) {
	if !db.Available() {
		c.JSON(http.StatusServiceUnavailable, DBUnavailableResponse)
		return
	}
	page, pageSize := pageParams(c)
	q := db.Instance.Preload("User").Order("date DESC")
	if member := c.Query("member"); member != "" {
		q = q.Joins("join users on users.id = memories.user_id").
			Where("users.full_name = ? or users.name = ?", member, member)
	}
	var memories []models.Memory
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&memories).Error; err != nil {
		internalError(c, "memory list failed", err)
		return
	}
	result := make([]PhotoView, 0, len(memories))
	for i := range memories {
		result = append(result, MemoryPhotoView(&memories[i]))
	}
	c.JSON(http.StatusOK, result)
}

func MemoryGet(c *gin.Context, _ *models.User) {
	if !db.Available() {
		c.JSON(http.StatusServiceUnavailable, DBUnavailableResponse)
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var memory models.Memory
	if db.Instance.Preload("User").First(&memory, id).Error != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	c.JSON(http.StatusOK, MemoryPhotoView(&memory))
}

type memoryForm struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Date        string `form:"date"` // YYYY-MM-DD
}

func parseMemoryDate(raw string) (time.Time, error) {
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", raw)
}

// uploadImage validates the file and stores it together with a JPEG
// thumbnail. Thumbnail failures are not fatal: the original is kept.
func uploadImage(c *gin.Context, file *multipart.FileHeader) (imageRef, thumbRef string, err error) {
	reader, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer reader.Close()
	var buf bytes.Buffer
	if _, err = buf.ReadFrom(reader); err != nil {
		return "", "", err
	}
	data := buf.Bytes()

	key := storage.NewKey("uploads", file.Filename)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(file.Filename)))
	}
	imageRef, err = storage.Default().Upload(c.Request.Context(), bytes.NewReader(data), key, contentType)
	if err != nil {
		return "", "", err
	}

	var thumb bytes.Buffer
	if _, thumbErr := utils.CreateThumb(thumbBound, bytes.NewReader(data), &thumb); thumbErr != nil {
		logrus.WithError(thumbErr).WithField("key", key).Warn("thumbnail generation failed")
		return imageRef, "", nil
	}
	thumbRef, thumbErr := storage.Default().Upload(c.Request.Context(), &thumb, storage.ThumbKey(key), "image/jpeg")
	if thumbErr != nil {
		logrus.WithError(thumbErr).WithField("key", key).Warn("thumbnail upload failed")
		return imageRef, "", nil
	}
	return imageRef, thumbRef, nil
}

// MemoryCreate handles multipart POST /api/memories. Requires the
// create-memory permission (route policy) plus a valid image file.
func MemoryCreate(c *gin.Context, user *models.User) {
	form := memoryForm{}
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	if strings.TrimSpace(form.Title) == "" {
		c.JSON(http.StatusBadRequest, Response{Error: "title is required"})
		return
	}
	date, err := parseMemoryDate(form.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "date must be YYYY-MM-DD"})
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "an image file is required"})
		return
	}
	if err := storage.ValidateUpload(file.Filename, file.Size); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	imageRef, thumbRef, err := uploadImage(c, file)
	if err != nil {
		internalError(c, "memory create: upload failed", err)
		return
	}
	memory := models.Memory{
		Title:       strings.TrimSpace(form.Title),
		Description: form.Description,
		Date:        date,
		ImageRef:    imageRef,
		ThumbRef:    thumbRef,
		UserID:      user.ID,
		User:        *user,
	}
	if err := db.Instance.Create(&memory).Error; err != nil {
		// Upload-then-persist is not transactional; the object stays behind.
		logrus.WithField("image", imageRef).Warn("memory row not created, uploaded object orphaned")
		internalError(c, "memory create: db write failed", err)
		return
	}
	c.JSON(http.StatusCreated, MemoryPhotoView(&memory))
}

// MemoryUpdate mutates a memory; owner or Admin only. A replacement image
// removes the previously stored object after the row is saved.
func MemoryUpdate(c *gin.Context, user *models.User) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var memory models.Memory
	if db.Instance.Preload("User").First(&memory, id).Error != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	if !memory.CanModify(user) {
		c.JSON(http.StatusForbidden, ForbiddenResponse)
		return
	}
	form := memoryForm{}
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	updates := map[string]interface{}{}
	if strings.TrimSpace(form.Title) != "" {
		updates["title"] = strings.TrimSpace(form.Title)
	}
	if form.Description != "" {
		updates["description"] = form.Description
	}
	if form.Date != "" {
		date, err := parseMemoryDate(form.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Error: "date must be YYYY-MM-DD"})
			return
		}
		updates["date"] = date
	}

	oldImage, oldThumb := "", ""
	if file, err := c.FormFile("image"); err == nil {
		if err := storage.ValidateUpload(file.Filename, file.Size); err != nil {
			c.JSON(http.StatusBadRequest, Response{Error: err.Error()})
			return
		}
		imageRef, thumbRef, err := uploadImage(c, file)
		if err != nil {
			internalError(c, "memory update: upload failed", err)
			return
		}
		oldImage, oldThumb = memory.ImageRef, memory.ThumbRef
		updates["image_ref"] = imageRef
		updates["thumb_ref"] = thumbRef
	}

	result := db.Instance.Model(&models.Memory{}).Where("id = ?", memory.ID).Updates(updates)
	if result.Error != nil {
		internalError(c, "memory update: db write failed", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		// The row disappeared between the read and the write.
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	// Old objects must not be left dangling; absence counts as success.
	storage.Default().Delete(oldImage)
	storage.Default().Delete(oldThumb)

	if db.Instance.Preload("User").First(&memory, memory.ID).Error != nil {
		c.JSON(http.StatusOK, OKResponse)
		return
	}
	c.JSON(http.StatusOK, MemoryPhotoView(&memory))
}

// MemoryDelete removes the row and then the stored image, best-effort.
func MemoryDelete(c *gin.Context, user *models.User) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var memory models.Memory
	if db.Instance.First(&memory, id).Error != nil {
		c.JSON(http.StatusNotFound, NotFoundResponse)
		return
	}
	if !memory.CanModify(user) {
		c.JSON(http.StatusForbidden, ForbiddenResponse)
		return
	}
	if err := deleteMemory(&memory); err != nil {
		internalError(c, "memory delete failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func deleteMemory(memory *models.Memory) error {
	if err := db.Instance.Delete(memory).Error; err != nil {
		return err
	}
	storage.Default().Delete(memory.ImageRef)
	storage.Default().Delete(memory.ThumbRef)
	return nil
}
