package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	info, err := s.PutObject(ctx, "q", "daily.sql", strings.NewReader("SELECT 1"), 8, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size)

	obj, err := s.GetObject(ctx, "q", "daily.sql")
	require.NoError(t, err)
	defer obj.Close()

	body, err := io.ReadAll(obj)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", string(body))
	assert.Equal(t, "text/plain", obj.Info().ContentType)
}

func TestStore_Missing(t *testing.T) {
	_, err := New().StatObject(context.Background(), "q", "nope")
	assert.True(t, errs.IsNotFound(err))
}

func TestStore_SizeMismatch(t *testing.T) {
	_, err := New().PutObject(context.Background(), "b", "k", strings.NewReader("abc"), 10, "")
	assert.True(t, errs.IsInvalidInput(err))
}
