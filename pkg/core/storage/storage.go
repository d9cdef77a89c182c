// Package storage defines the narrow file-storage contract used by intake,
// the bank-statement analyzer and the report assembler. Keys are opaque
// strings of the form "{case_id}/{filename}"; callers never parse them.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage is the external file-store collaborator (S3 or local disk).
type Storage interface {
	Put(key string, data []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	Exists(key string) (bool, error)
	// LocalPath returns a filesystem path for the key when the backing store
	// can provide one (the bank-statement parser wants a real file). ok=false
	// means the caller must fall back to Get.
	LocalPath(key string) (path string, ok bool)
}

// Key builds the canonical storage key for a case file.
func Key(caseID, filename string) string {
	return caseID + "/" + filepath.Base(filename)
}

// =============================================================================
// LOCAL DISK IMPLEMENTATION
// =============================================================================

// LocalStorage stores files under a base directory.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a local store rooted at baseDir.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStorage{BaseDir: baseDir}, nil
}

func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.BaseDir, clean), nil
}

// Put writes the bytes for a key, creating parent directories as needed.
func (s *LocalStorage) Put(key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create key dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Get reads the bytes for a key.
func (s *LocalStorage) Get(key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Delete removes a key. Missing keys are not an error.
func (s *LocalStorage) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a key is present.
func (s *LocalStorage) Exists(key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// LocalPath returns the on-disk path for a key.
func (s *LocalStorage) LocalPath(key string) (string, bool) {
	path, err := s.resolve(key)
	if err != nil {
		return "", false
	}
	return path, true
}
