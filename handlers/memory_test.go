package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"memories/config"
	"memories/db"
	"memories/models"
	"memories/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	db.SetInstanceForTest(gdb)
	require.NoError(t, models.Init())
	require.NoError(t, models.Seed("a123456"))
	require.NoError(t, storage.Init(config.Config{
		StorageType:    storage.TypeLocal,
		UploadsDir:     t.TempDir(),
		UploadsBaseURL: "/uploads",
	}))
}

func makeUser(t *testing.T, name string, roleNames ...string) models.User {
	t.Helper()
	var roles []models.Role
	for _, rn := range roleNames {
		role, err := models.RoleByName(rn)
		require.NoError(t, err)
		roles = append(roles, role)
	}
	u, err := models.UserCreate(name, name+"@family.local", "", "secret1", roles...)
	require.NoError(t, err)
	return u
}

func makeMemory(t *testing.T, owner models.User, title string) models.Memory {
	t.Helper()
	m := models.Memory{Title: title, UserID: owner.ID}
	require.NoError(t, db.Instance.Create(&m).Error)
	return m
}

func deleteRequest(memoryID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	id := strconv.FormatUint(memoryID, 10)
	c.Request = httptest.NewRequest(http.MethodDelete, "/api/memories/"+id, nil)
	c.Params = gin.Params{{Key: "id", Value: id}}
	return c, w
}

func updateRequest(memoryID uint64, form url.Values) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	id := strconv.FormatUint(memoryID, 10)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/memories/"+id, strings.NewReader(form.Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Params = gin.Params{{Key: "id", Value: id}}
	return c, w
}

func createRequest(t *testing.T, fields map[string]string, fileName string, fileData []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("image", fileName)
	require.NoError(t, err)
	_, err = part.Write(fileData)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/memories", &body)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	return c, w
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestMemoryCreateRoundTrip(t *testing.T) {
	setupTest(t)
	owner := makeUser(t, "owner", models.RoleUser)

	c, w := createRequest(t, map[string]string{
		"title":       "Lake weekend",
		"description": "Sunset over the water",
		"date":        "2024-06-15",
	}, "sunset.png", pngBytes(t, 640, 480))
	MemoryCreate(c, &owner)
	require.Equal(t, http.StatusCreated, w.Code)

	var created PhotoView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Lake weekend", created.Title)
	assert.Equal(t, "2024-06-15", created.Date)
	assert.NotEmpty(t, created.ImageURL)
	assert.NotEmpty(t, created.ThumbURL)

	// The returned reference resolves to a retrievable file
	disk := storage.Default().(*storage.DiskStorage)
	key := strings.TrimPrefix(created.ImageURL, "/uploads/")
	_, err := os.Stat(filepath.Join(disk.BaseDir(), filepath.FromSlash(key)))
	assert.NoError(t, err)

	// ... and fetching the memory right away returns the same reference
	getW := httptest.NewRecorder()
	getC, _ := gin.CreateTestContext(getW)
	id := strconv.FormatUint(created.ID, 10)
	getC.Request = httptest.NewRequest(http.MethodGet, "/api/memories/"+id, nil)
	getC.Params = gin.Params{{Key: "id", Value: id}}
	MemoryGet(getC, nil)
	require.Equal(t, http.StatusOK, getW.Code)

	var fetched PhotoView
	require.NoError(t, json.Unmarshal(getW.Body.Bytes(), &fetched))
	assert.Equal(t, created.ImageURL, fetched.ImageURL)
	assert.Equal(t, "owner", fetched.Member)
}

func TestMemoryCreateRejectsBadUploads(t *testing.T) {
	setupTest(t)
	owner := makeUser(t, "owner", models.RoleUser)

	c, w := createRequest(t, map[string]string{"title": "Nope"}, "movie.mp4", []byte("not an image"))
	MemoryCreate(c, &owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = createRequest(t, map[string]string{"title": ""}, "ok.png", pngBytes(t, 10, 10))
	MemoryCreate(c, &owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemoryDeleteOwnership(t *testing.T) {
	setupTest(t)
	owner := makeUser(t, "owner", models.RoleUser)
	stranger := makeUser(t, "stranger", models.RoleUser)
	memory := makeMemory(t, owner, "Summer 2023")

	c, w := deleteRequest(memory.ID)
	MemoryDelete(c, &stranger)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var still models.Memory
	assert.NoError(t, db.Instance.First(&still, memory.ID).Error)

	c, w = deleteRequest(memory.ID)
	MemoryDelete(c, &owner)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Error(t, db.Instance.First(&models.Memory{}, memory.ID).Error)
}

func TestMemoryDeleteAsAdmin(t *testing.T) {
	setupTest(t)
	owner := makeUser(t, "owner", models.RoleUser)
	admin := makeUser(t, "boss", models.RoleAdmin)
	memory := makeMemory(t, owner, "Winter 2023")

	c, w := deleteRequest(memory.ID)
	MemoryDelete(c, &admin)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMemoryUpdateOwnership(t *testing.T) {
	setupTest(t)
	owner := makeUser(t, "owner", models.RoleUser)
	stranger := makeUser(t, "stranger", models.RoleUser)
	memory := makeMemory(t, owner, "Old title")

	c, w := updateRequest(memory.ID, url.Values{"title": {"Hacked"}})
	MemoryUpdate(c, &stranger)
	assert.Equal(t, http.StatusForbidden, w.Code)

	c, w = updateRequest(memory.ID, url.Values{"title": {"New title"}, "date": {"2024-05-01"}})
	MemoryUpdate(c, &owner)
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Memory
	require.NoError(t, db.Instance.First(&updated, memory.ID).Error)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "2024-05-01", updated.Date.UTC().Format("2006-01-02"))
}

func TestMemoryUpdateBadDate(t *testing.T) {
	setupTest(t)
	owner := makeUser(t, "owner", models.RoleUser)
	memory := makeMemory(t, owner, "A title")

	c, w := updateRequest(memory.ID, url.Values{"date": {"01/05/2024"}})
	MemoryUpdate(c, &owner)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMemoryUpdateGone(t *testing.T) {
	setupTest(t)
	owner := makeUser(t, "owner", models.RoleUser)

	c, w := updateRequest(99999, url.Values{"title": {"whatever"}})
	MemoryUpdate(c, &owner)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
