package local

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store writes proof-of-payment files to the local filesystem. Files are
// saved under a generated unique name so user-supplied names never collide
// or escape the upload directory.
type Store struct {
	baseDir string
}

// New returns a Store rooted at baseDir, creating it when absent.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save persists content under a fresh uuid name, preserving the original
// file extension, and returns the stored path.
func (s *Store) Save(originalName string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("content is required")
	}
	if originalName == "" {
		return "", fmt.Errorf("file name is required")
	}

	name := uuid.NewString() + filepath.Ext(originalName)
	path := filepath.Join(s.baseDir, name)

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing proof file: %w", err)
	}
	return path, nil
}
