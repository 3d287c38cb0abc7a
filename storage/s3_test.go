package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestS3KeyFrom(t *testing.T) {
	s := &S3Storage{bucket: "photos", endpoint: "https://r2.example.com"}

	// Bare keys pass through untouched
	assert.Equal(t, "uploads/a.jpg", s.KeyFrom("uploads/a.jpg"))

	// URLs under the configured endpoint get the prefix stripped
	assert.Equal(t, "uploads/a.jpg", s.KeyFrom("https://r2.example.com/photos/uploads/a.jpg"))

	// ... case-insensitively
	assert.Equal(t, "uploads/a.jpg", s.KeyFrom("HTTPS://R2.EXAMPLE.COM/photos/uploads/a.jpg"))

	// Escaped characters come back decoded
	assert.Equal(t, "uploads/my photo.jpg", s.KeyFrom("https://r2.example.com/photos/uploads/my%20photo.jpg"))

	// Unknown hosts fall back to the URL path, still dropping the bucket
	assert.Equal(t, "uploads/a.jpg", s.KeyFrom("https://other.example.org/photos/uploads/a.jpg"))
	assert.Equal(t, "uploads/a.jpg", s.KeyFrom("https://other.example.org/uploads/a.jpg"))
}

func TestS3GetURL(t *testing.T) {
	s := &S3Storage{bucket: "photos", endpoint: "https://r2.example.com"}

	// Slashes separate key segments and survive escaping
	assert.Equal(t, "https://r2.example.com/photos/uploads/a.jpg", s.GetURL("uploads/a.jpg"))
	assert.Equal(t, "https://r2.example.com/photos/uploads/my%20photo.jpg", s.GetURL("uploads/my photo.jpg"))

	// GetURL and KeyFrom are inverses
	assert.Equal(t, "uploads/my photo.jpg", s.KeyFrom(s.GetURL("uploads/my photo.jpg")))
}

func TestNewKeyAndThumbKey(t *testing.T) {
	key := NewKey("uploads", "Grandma's Birthday.JPG")
	assert.Regexp(t, `^uploads/[0-9a-f-]{36}\.jpg$`, key)
	assert.NotEqual(t, key, NewKey("uploads", "Grandma's Birthday.JPG"))

	assert.Equal(t, "uploads/abc_thumb.jpg", ThumbKey("uploads/abc.png"))
	assert.Equal(t, "uploads/abc_thumb.jpg", ThumbKey("uploads/abc.jpg"))
}
