package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"memories/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"
)

// S3Storage talks to any S3-compatible endpoint (R2, MinIO, AWS itself).
// Objects are uploaded publicly readable; the public URL is
// {endpoint}/{bucket}/{escaped key}.
type S3Storage struct {
	client   *s3.S3
	bucket   string
	endpoint string // no trailing slash
}

func NewS3Storage(cfg config.Config) (*S3Storage, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.S3Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("storage: S3_ENDPOINT is not configured")
	}
	if cfg.S3Bucket == "" {
		return nil, errors.New("storage: S3_BUCKET is not configured")
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, errors.New("storage: S3 credentials are not configured")
	}
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(cfg.S3Region),
		Credentials:      credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	return &S3Storage{
		client:   s3.New(sess),
		bucket:   cfg.S3Bucket,
		endpoint: endpoint,
	}, nil
}

// Upload buffers the whole stream in memory before the PUT: streamed
// (chunked-signature) uploads are rejected by some S3-compatible endpoints.
func (s *S3Storage) Upload(ctx context.Context, content io.Reader, key, contentType string) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return s.GetURL(key), nil
}

// Delete accepts a bare key or a full URL. The object being already gone is
// success; anything else is logged and reported as false.
func (s *S3Storage) Delete(keyOrURL string) bool {
	if keyOrURL == "" {
		return true
	}
	key := s.KeyFrom(keyOrURL)
	_, err := s.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("s3 delete failed")
		return false
	}
	return true
}

func (s *S3Storage) GetURL(key string) string {
	return s.endpoint + "/" + s.bucket + "/" + escapeKey(key)
}

func (s *S3Storage) PresignedURL(key string, ttl time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return req.Presign(ttl)
}

// KeyFrom normalizes a reference to an object key: full URLs get the known
// endpoint+bucket prefix stripped; unknown URLs fall back to their path.
func (s *S3Storage) KeyFrom(keyOrURL string) string {
	lower := strings.ToLower(keyOrURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return keyOrURL
	}
	prefix := s.endpoint + "/" + s.bucket + "/"
	if strings.HasPrefix(strings.ToLower(keyOrURL), strings.ToLower(prefix)) {
		return unescapeKey(keyOrURL[len(prefix):])
	}
	u, err := url.Parse(keyOrURL)
	if err != nil {
		return keyOrURL
	}
	path := strings.TrimLeft(u.Path, "/")
	path = strings.TrimPrefix(path, s.bucket+"/")
	return unescapeKey(path)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func unescapeKey(escaped string) string {
	key, err := url.PathUnescape(escaped)
	if err != nil {
		return escaped
	}
	return key
}

var _ Storage = (*S3Storage)(nil)
