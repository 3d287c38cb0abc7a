package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// DiskStorage writes uploads under a fixed directory that is served by the
// web server at baseURL. Returned references are web paths, e.g.
// /uploads/uploads/0b1f...c9.jpg.
type DiskStorage struct {
	baseDir string
	baseURL string
	dirs    cmap.ConcurrentMap[string, bool] // created directories
}

func NewDiskStorage(baseDir, baseURL string) (*DiskStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		dirs:    cmap.New[bool](),
	}, nil
}

// BaseDir is the directory the router serves as static content.
func (s *DiskStorage) BaseDir() string {
	return s.baseDir
}

func (s *DiskStorage) fullPath(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

func (s *DiskStorage) ensureDir(dir string) error {
	if ok, _ := s.dirs.Get(dir); ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.dirs.Set(dir, true)
	return nil
}

func (s *DiskStorage) Upload(ctx context.Context, content io.Reader, key, contentType string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	fileName := s.fullPath(key)
	if err := s.ensureDir(filepath.Dir(fileName)); err != nil {
		return "", err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(file, content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	return s.GetURL(key), nil
}

// Delete removes the file behind a key or a previously returned web path.
// Missing files count as success.
func (s *DiskStorage) Delete(keyOrURL string) bool {
	if keyOrURL == "" {
		return true
	}
	err := os.Remove(s.fullPath(s.keyFrom(keyOrURL)))
	if err == nil || os.IsNotExist(err) {
		return true
	}
	logrus.WithError(err).WithField("ref", keyOrURL).Warn("disk delete failed")
	return false
}

func (s *DiskStorage) GetURL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// PresignedURL is the plain URL: local uploads are world-readable anyway.
func (s *DiskStorage) PresignedURL(key string, _ time.Duration) (string, error) {
	return s.GetURL(key), nil
}

func (s *DiskStorage) keyFrom(keyOrURL string) string {
	if s.baseURL != "" && strings.HasPrefix(keyOrURL, s.baseURL+"/") {
		return strings.TrimPrefix(keyOrURL, s.baseURL+"/")
	}
	return strings.TrimLeft(keyOrURL, "/")
}

func (s *DiskStorage) TotalSpace() uint64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(s.baseDir, &stat); err != nil {
		return 0
	}
	return stat.Blocks * uint64(stat.Bsize)
}

func (s *DiskStorage) FreeSpace() uint64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(s.baseDir, &stat); err != nil {
		return 0
	}
	return stat.Bavail * uint64(stat.Bsize)
}

var (
	_ Storage       = (*DiskStorage)(nil)
	_ SpaceReporter = (*DiskStorage)(nil)
)
