package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUpload("photo.jpg", 1024))
	assert.NoError(t, ValidateUpload("PHOTO.JPG", 1024), "extension check is case-insensitive")
	assert.NoError(t, ValidateUpload("pic.webp", MaxUploadSize))

	err := ValidateUpload("huge.png", MaxUploadSize+1)
	assert.ErrorContains(t, err, "large")

	assert.Error(t, ValidateUpload("malware.exe", 10))
	assert.Error(t, ValidateUpload("noextension", 10))
	assert.Error(t, ValidateUpload("movie.mp4", 10))
}
