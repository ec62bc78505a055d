package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"complyflow/internal/config"
)

// Store persists uploaded documents and resolves their public URLs.
type Store interface {
	Save(subdir, fileName string, r io.Reader) (string, int64, error)
	PublicURL(path string) string
	Remove(path string) error
}

// LocalStorage stores documents on the local filesystem under a root
// directory. Stored paths are relative to the root so the root can move.
type LocalStorage struct {
	root          string
	publicBaseURL string
}

// NewLocalStorage creates a local storage rooted at cfg.Root
func NewLocalStorage(cfg *config.StorageConfig) (*LocalStorage, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{
		root:          cfg.Root,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Save writes the reader's content under a random key, keeping the original
// file extension. It returns the stored relative path and the byte count.
func (s *LocalStorage) Save(subdir, fileName string, r io.Reader) (string, int64, error) {
	key := uuid.NewString() + filepath.Ext(fileName)
	rel := filepath.Join(subdir, key)
	full := filepath.Join(s.root, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create storage directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(full)
		return "", 0, fmt.Errorf("failed to write file: %w", err)
	}

	return filepath.ToSlash(rel), n, nil
}

// PublicURL returns the URL a stored path is served under
func (s *LocalStorage) PublicURL(path string) string {
	return s.publicBaseURL + "/" + filepath.ToSlash(path)
}

// Remove deletes a stored file. Removing a missing file is not an error.
func (s *LocalStorage) Remove(path string) error {
	err := os.Remove(filepath.Join(s.root, path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Root returns the directory files are stored under, for serving them.
func (s *LocalStorage) Root() string {
	return s.root
}
