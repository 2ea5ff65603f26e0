// Package memory is an in-process filestore.Store, used in tests and for
// dry runs without an object storage server.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/filestore"
)

type entry struct {
	data []byte
	info filestore.ObjectInfo
}

// Store keeps objects in a map. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	objects map[string]entry
}

// New returns an empty store.
func New() *Store {
	return &Store{objects: make(map[string]entry)}
}

func path(bucket, key string) string { return bucket + "/" + key }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) GetObject(_ context.Context, bucket, key string) (filestore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.objects[path(bucket, key)]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "object %s/%s not found", bucket, key)
	}
	info := e.info
	return &object{ReadCloser: io.NopCloser(bytes.NewReader(e.data)), info: &info}, nil
}

func (s *Store) StatObject(_ context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.objects[path(bucket, key)]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "object %s/%s not found", bucket, key)
	}
	info := e.info
	return &info, nil
}

func (s *Store) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*filestore.ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "read upload body", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "upload size %d, declared %d", len(data), size)
	}

	info := filestore.ObjectInfo{
		Bucket:       bucket,
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		LastModified: time.Now(),
	}

	s.mu.Lock()
	s.objects[path(bucket, key)] = entry{data: data, info: info}
	s.mu.Unlock()

	return &info, nil
}

func (s *Store) PresignGetURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "memory://" + path(bucket, key), nil
}

// Bytes returns the stored content of an object.
func (s *Store) Bytes(bucket, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.objects[path(bucket, key)]
	return e.data, ok
}

type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo { return o.info }
