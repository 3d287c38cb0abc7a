package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadSize is the hard limit for a single photo upload.
const MaxUploadSize = 5 << 20 // 5 MB

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ValidateUpload runs before any storage write. The extension check is
// case-insensitive, so PHOTO.JPG is accepted.
func ValidateUpload(fileName string, size int64) error {
	if size > MaxUploadSize {
		return fmt.Errorf("file is too large (%d bytes, maximum is %d)", size, MaxUploadSize)
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return fmt.Errorf("file type %q is not allowed (use jpg, jpeg, png, gif or webp)", ext)
	}
	return nil
}
