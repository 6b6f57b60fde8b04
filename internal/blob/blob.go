// Package blob stores uploaded and generated files in object storage.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"quizontal-backend/internal/config"
)

// Store is an object storage bucket
type Store interface {
	// Put uploads an object and returns its public URL
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// PresignPut returns a URL the client can upload the object to directly
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	// URL returns the public URL of key
	URL(key string) string
}

// New creates the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "minio":
		return NewMinioStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// publicURL joins base and key, falling back to a path-style endpoint URL
func publicURL(cfg config.StorageConfig, key string) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/") + "/" + key
	}
	if cfg.Endpoint != "" {
		scheme := "https"
		if cfg.DisableSSL {
			scheme = "http"
		}
		endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
		return fmt.Sprintf("%s://%s/%s", scheme, path.Join(endpoint, cfg.Bucket), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, key)
}

// ObjectKey builds "{folder}/{userID}/{unix_ms}_{name}" with the file name
// reduced to a safe base name
func ObjectKey(folder, userID, name string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%d_%s", folder, userID, at.UnixMilli(), SafeName(name))
}

// SafeName strips directories and characters that do not belong in a key
func SafeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('_')
		}
	}
	if s := sb.String(); s != "" && s != "." && s != ".." {
		return s
	}
	return "file"
}
