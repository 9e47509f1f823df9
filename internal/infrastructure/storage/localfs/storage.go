package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/answerforge/rfp-engine/internal/core/domain"
)

// Storage keeps uploaded knowledge files on the local filesystem. Keys are
// slash-separated paths relative to the base directory, e.g.
// "imports/<id>/<filename>".
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/imports"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.WrapError(domain.ErrStore, "save file", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return domain.WrapError(domain.ErrStore, "save file", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return domain.WrapError(domain.ErrStore, "save file", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.WrapError(domain.ErrNotFound, "open file", err)
		}
		return nil, domain.WrapError(domain.ErrStore, "open file", err)
	}
	return f, nil
}

// resolve maps a key to an absolute path and rejects keys that would escape
// the base directory.
func (s *Storage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", domain.WrapError(domain.ErrValidation, "resolve key",
			fmt.Errorf("invalid storage key: %s", key))
	}
	return filepath.Join(s.basePath, clean), nil
}
