package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalBackend keeps files on the local filesystem under a data root.
type LocalBackend struct {
	root string
}

func NewLocalBackend(root string) (*LocalBackend, error) {
	if root == "" {
		return nil, fmt.Errorf("storage: data root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: unable to create data root: %w", err)
	}
	return &LocalBackend{root: root}, nil
}

func (b *LocalBackend) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(b.root, clean), nil
}

func (b *LocalBackend) Put(ctx context.Context, key string, data []byte) error {
	path, err := b.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: unable to create directory for %q: %w", key, err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (b *LocalBackend) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := b.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (b *LocalBackend) DownloadToPath(ctx context.Context, key string, dest string) error {
	data, err := b.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	path, err := b.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *LocalBackend) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", ErrSignedURLUnsupported
}
