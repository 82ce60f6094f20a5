// Package storage owns the on-disk layout for task and submission archives.
// Files land at unique, uuid-suffixed paths, so concurrent uploads never
// collide and a replaced submission never overwrites in place.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/shrimpsizemoose/semla/internal/faults"
)

const (
	KindTask       = "task"
	KindSubmission = "submission"
)

type FileStore struct {
	root string
}

// NewFileStore ensures the upload directory tree exists under root.
func NewFileStore(root string) (*FileStore, error) {
	for _, dir := range []string{root, filepath.Join(root, "tasks"), filepath.Join(root, "submissions")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
		}
	}
	return &FileStore{root: root}, nil
}

func (fs *FileStore) dirFor(kind string) string {
	if kind == KindSubmission {
		return filepath.Join(fs.root, "submissions")
	}
	return filepath.Join(fs.root, "tasks")
}

// Save streams an upload to a fresh uniquely-named file and returns its path.
// The caller removes the file if validation rejects it afterwards.
func (fs *FileStore) Save(kind string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%s-%s.zip", kind, uuid.NewString())
	path := filepath.Join(fs.dirFor(kind), name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close upload file: %w", err)
	}

	return path, nil
}

// Remove deletes a stored artifact, tolerating a file that is already gone.
func (fs *FileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Ensure verifies the artifact still exists at serve time.
func (fs *FileStore) Ensure(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return faults.FileMissing("task file not found on server")
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return nil
}
