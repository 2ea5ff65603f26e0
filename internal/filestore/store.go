// Package filestore defines the object storage backends sqlsheet reads
// queries from and uploads workbooks to.
//
// Objects are addressed as s3://bucket/key. Callers depend only on this
// package, never on a provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	info, err := store.PutObject(ctx, "reports", "daily.xlsx", r, size, sheet.ContentType)
package filestore

import (
	"context"
	"io"
	"strings"
	"time"
)

// Scheme prefixes object references in settings and CLI flags.
const Scheme = "s3://"

// Store is the interface every storage provider implements.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// GetObject opens a streaming handle to the object at key inside bucket.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, bucket, key string) (Object, error)

	// StatObject returns metadata for the object without downloading it.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)

	// PutObject uploads size bytes from r to key inside bucket.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// PresignGetURL returns a time-limited download URL for the object.
	PresignGetURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// ParseURL splits "s3://bucket/key" into its parts. ok is false for
// anything else, including local paths.
func ParseURL(ref string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(ref, Scheme) {
		return "", "", false
	}
	bucket, key, found := strings.Cut(strings.TrimPrefix(ref, Scheme), "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// IsURL reports whether ref names an object rather than a local path.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, Scheme)
}
