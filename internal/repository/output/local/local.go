package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"photo-watermark/internal/repository/output"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// FileStore writes exported images below a root directory. Absolute
// names bypass the root.
type FileStore struct {
	root    string
	retries retry.Strategy
	logger  *zlog.Zerolog
}

func NewFileStore(root string, retries retry.Strategy, logger *zlog.Zerolog) *FileStore {
	if logger == nil {
		logger = &zlog.Logger
	}
	return &FileStore{root: root, retries: retries, logger: logger}
}

func (s *FileStore) Location(name string) string {
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, name)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Put writes data through a temporary file and a rename so a failed
// attempt never leaves a truncated image behind.
func (s *FileStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: empty file name", output.ErrStorageValidation)
	}
	target := s.Location(name)

	err := retry.Do(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return writeAtomic(target, data)
	}, s.retries)
	if err != nil {
		s.logger.Error().Err(err).Str("path", target).Msg("Failed to write export file")
		return "", fmt.Errorf("%w: failed to write %s: %v", output.ErrStorageError, target, err)
	}

	s.logger.Debug().
		Str("path", target).
		Str("content_type", contentType).
		Int("size", len(data)).
		Msg("Export file written")
	return target, nil
}

func writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move temp file: %w", err)
	}
	return nil
}
