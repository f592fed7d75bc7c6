// Package storage persists uploaded media onto the local filesystem while
// a transcription job is in flight. Files live only until the retention
// sweep reclaims them alongside their job record.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore writes uploads under a single base directory with generated
// names, so callers never influence the on-disk path.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath, creating the
// directory if needed.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// SaveUpload streams r into a new uniquely named file and returns its full
// path. The original filename only contributes its extension.
func (s *FileStore) SaveUpload(r io.Reader, originalName string) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	name := uuid.NewString() + sanitizeExt(originalName)
	fullPath := filepath.Join(s.basePath, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("storage: create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(fullPath)
		return "", fmt.Errorf("storage: write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("storage: close upload: %w", err)
	}
	return fullPath, nil
}

// Remove deletes the file at path. A file that is already gone is treated
// as success so repeated sweeps stay idempotent.
func (s *FileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

// sanitizeExt extracts a safe file extension from a client-supplied name.
func sanitizeExt(name string) string {
	ext := filepath.Ext(filepath.Base(name))
	if ext == "." || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
