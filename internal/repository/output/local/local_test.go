package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"photo-watermark/internal/repository/output"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

var oneAttempt = retry.Strategy{Attempts: 1, Delay: time.Millisecond, Backoff: 1}

func TestFileStorePut(t *testing.T) {
	root := t.TempDir()
	s := NewFileStore(root, oneAttempt, nil)

	loc, err := s.Put(context.Background(), filepath.Join("batch", "a.png"), []byte("data"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "batch", "a.png"), loc)

	got, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	entries, err := os.ReadDir(filepath.Join(root, "batch"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not remain")
}

func TestFileStoreLocation(t *testing.T) {
	root := t.TempDir()
	s := NewFileStore(root, oneAttempt, nil)

	assert.Equal(t, filepath.Join(root, "x.jpg"), s.Location("x.jpg"))
	abs := filepath.Join(t.TempDir(), "y.jpg")
	assert.Equal(t, abs, s.Location(abs))
}

func TestFileStorePutErrors(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	s := NewFileStore(root, oneAttempt, nil)

	_, err := s.Put(context.Background(), "", []byte("x"), "image/png")
	assert.ErrorIs(t, err, output.ErrStorageValidation)

	_, err = s.Put(context.Background(), filepath.Join("file", "nested.png"), []byte("x"), "image/png")
	assert.ErrorIs(t, err, output.ErrStorageError)
}
