package sheet

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/filestore"
)

// Persister stores a finished workbook under a destination.
type Persister interface {
	Persist(ctx context.Context, wb *Workbook, dest string) error
}

// FilePersister saves workbooks to the local filesystem, creating the
// parent directory when missing.
type FilePersister struct{}

func (FilePersister) Persist(_ context.Context, wb *Workbook, dest string) error {
	if dest == "" {
		return errs.New(errs.ErrKindInvalidInput, "output path is required")
	}
	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.ErrKindWriteFailed, "create output directory", err)
		}
	}
	return wb.SaveAs(dest)
}

// ObjectPersister uploads workbooks to object storage. dest must be an
// s3://bucket/key reference.
type ObjectPersister struct {
	Store filestore.Store
}

func (p ObjectPersister) Persist(ctx context.Context, wb *Workbook, dest string) error {
	bucket, key, ok := filestore.ParseURL(dest)
	if !ok {
		return errs.Newf(errs.ErrKindInvalidInput, "not an object reference: %q", dest)
	}

	var buf bytes.Buffer
	if _, err := wb.WriteTo(&buf); err != nil {
		return err
	}

	if _, err := p.Store.PutObject(ctx, bucket, key, &buf, int64(buf.Len()), ContentType); err != nil {
		return errs.Wrap(errs.ErrKindWriteFailed, "upload workbook to "+dest, err)
	}
	return nil
}

// PersisterFor picks the persister for dest. Object references need a
// configured store.
func PersisterFor(dest string, store filestore.Store) (Persister, error) {
	if !filestore.IsURL(dest) {
		return FilePersister{}, nil
	}
	if store == nil {
		return nil, errs.Newf(errs.ErrKindInvalidInput, "output %q needs object storage settings", dest)
	}
	return ObjectPersister{Store: store}, nil
}
