// Package querysource loads the SQL text of an export from a local file or
// an object in storage.
package querysource

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/filestore"
)

// MaxQuerySize caps how much query text is read.
const MaxQuerySize = 4 << 20

// Source resolves query references. A nil store limits it to local files.
type Source struct {
	store filestore.Store
}

// New returns a Source reading objects through store.
func New(store filestore.Store) *Source {
	return &Source{store: store}
}

// Load returns the query text named by ref, either a file path or an
// s3://bucket/key reference. The text is returned verbatim; a query that is
// empty or only whitespace is rejected.
func (s *Source) Load(ctx context.Context, ref string) (string, error) {
	var (
		text string
		err  error
	)
	if filestore.IsURL(ref) {
		text, err = s.loadObject(ctx, ref)
	} else {
		text, err = loadFile(ref)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errs.Newf(errs.ErrKindInvalidInput, "query %s is empty", ref)
	}
	return strings.TrimPrefix(text, "\ufeff"), nil
}

func loadFile(path string) (string, error) {
	if path == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "query path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errs.Wrap(errs.ErrKindNotFound, "query file "+path+" not found", err)
		}
		if errors.Is(err, fs.ErrPermission) {
			return "", errs.Wrap(errs.ErrKindPermissionDenied, "open query file "+path, err)
		}
		return "", errs.Wrap(errs.ErrKindUnknown, "open query file "+path, err)
	}
	defer f.Close()
	return readLimited(f, path)
}

func (s *Source) loadObject(ctx context.Context, ref string) (string, error) {
	bucket, key, ok := filestore.ParseURL(ref)
	if !ok {
		return "", errs.Newf(errs.ErrKindInvalidInput, "malformed object reference %q", ref)
	}
	if s.store == nil {
		return "", errs.Newf(errs.ErrKindInvalidInput, "query %s needs object storage settings", ref)
	}

	info, err := s.store.StatObject(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	if info.Size > MaxQuerySize {
		return "", errs.Newf(errs.ErrKindInvalidInput, "query %s is %d bytes, limit is %d", ref, info.Size, MaxQuerySize)
	}

	obj, err := s.store.GetObject(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	defer obj.Close()
	return readLimited(obj, ref)
}

func readLimited(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxQuerySize+1))
	if err != nil {
		return "", errs.Wrap(errs.ErrKindUnknown, "read query "+name, err)
	}
	if len(data) > MaxQuerySize {
		return "", errs.Newf(errs.ErrKindInvalidInput, "query %s exceeds %d bytes", name, MaxQuerySize)
	}
	return string(data), nil
}
