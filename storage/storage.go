package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"memories/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// Storage persists uploaded photos. Upload returns the reference saved on the
// Memory row: a public URL for remote backends, a web path for local disk.
// Delete is best-effort cleanup: a missing object counts as success and
// failures are reported as false, never as an error.
type Storage interface {
	Upload(ctx context.Context, content io.Reader, key, contentType string) (string, error)
	Delete(keyOrURL string) bool
	GetURL(key string) string
	PresignedURL(key string, ttl time.Duration) (string, error)
}

// SpaceReporter is implemented by backends that can report disk capacity.
type SpaceReporter interface {
	TotalSpace() uint64
	FreeSpace() uint64
}

var defaultStorage Storage

// Init selects the backend once at startup based on configuration.
func Init(cfg config.Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	defaultStorage = s
	logrus.WithField("type", cfg.StorageType).Info("storage backend ready")
	return nil
}

func Default() Storage {
	if defaultStorage == nil {
		panic("storage not initialized")
	}
	return defaultStorage
}

func New(cfg config.Config) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageType)) {
	case "", TypeLocal:
		return NewDiskStorage(cfg.UploadsDir, cfg.UploadsBaseURL)
	case TypeS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.StorageType)
	}
}

// NewKey builds a collision-free object key from an uploaded file's name,
// e.g. uploads/0b1f...c9.jpg. The original extension is kept, lowercased.
func NewKey(prefix, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	key := uuid.NewString() + ext
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// ThumbKey derives the key for a memory's JPEG thumbnail.
func ThumbKey(key string) string {
	ext := filepath.Ext(key)
	return strings.TrimSuffix(key, ext) + "_thumb.jpg"
}
