package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// localStorage keeps objects as files below a root directory.
type localStorage struct {
	root string
}

func NewLocalStorage(root string) (FileStorage, error) {
	if root == "" {
		return nil, errors.New("storage: local root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", root, err)
	}
	return &localStorage{root: root}, nil
}

func (s *localStorage) path(objectKey string) (string, error) {
	if !filepath.IsLocal(objectKey) {
		return "", fmt.Errorf("storage: invalid object key %q", objectKey)
	}
	return filepath.Join(s.root, filepath.FromSlash(objectKey)), nil
}

func (s *localStorage) PutObject(ctx context.Context, objectKey, _ string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := s.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	// write then rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func (s *localStorage) GetObject(ctx context.Context, objectKey string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := s.path(objectKey)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return data, err
}

func (s *localStorage) DeleteObject(ctx context.Context, objectKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
