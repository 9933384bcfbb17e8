package bill

import (
	"fmt"
	"os"
	"path/filepath"
)

// Archive keeps the original uploaded files so a stored bill can always be
// traced back to the document it was extracted from.
type Archive interface {
	// Save stores a file and returns the name it was stored under
	Save(filename string, data []byte) (string, error)

	// Get retrieves a stored file
	Get(name string) ([]byte, error)

	// Delete removes a stored file
	Delete(name string) error

	// Clear removes every stored file
	Clear() error
}

// LocalArchive implements Archive on the local filesystem
type LocalArchive struct {
	dir string
}

// NewLocalArchive creates the archive directory if needed
func NewLocalArchive(dir string) (*LocalArchive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &LocalArchive{dir: dir}, nil
}

// Save stores a file in the archive directory
func (l *LocalArchive) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves a file from the archive directory
func (l *LocalArchive) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from the archive directory
func (l *LocalArchive) Delete(name string) error {
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Clear removes and recreates the archive directory
func (l *LocalArchive) Clear() error {
	if err := os.RemoveAll(l.dir); err != nil {
		return fmt.Errorf("clearing archive: %w", err)
	}
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("recreating archive directory: %w", err)
	}
	return nil
}
