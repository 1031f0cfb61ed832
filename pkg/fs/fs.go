// Package fs provides the file system operations the pruner needs.
package fs

import (
	"errors"
	"os"
)

//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -source=fs.go -destination=mockfs.gen.go -package=fs

// FS abstracts the file system for reading and rewriting source files.
type FS interface {
	// Exists checks if a file or directory exists at the given path.
	Exists(path string) (bool, error)

	// Stat returns file info for path.
	Stat(path string) (os.FileInfo, error)

	// ReadFile reads the contents of a file.
	ReadFile(path string) ([]byte, error)

	// WriteFile overwrites a file in place.
	WriteFile(path string, data []byte, perm os.FileMode) error

	// WriteFileAtomic writes data to a file atomically using a temporary file and rename.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// IsNotExist checks if an error indicates that a file or directory doesn't exist.
	IsNotExist(err error) bool
}

type realFS struct{}

// NewFS creates a new FS backed by the operating system.
func NewFS() FS {
	return &realFS{}
}

// Exists checks if a file or directory exists at the given path.
func (f *realFS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// Stat returns file info for path.
func (f *realFS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads the contents of a file.
func (f *realFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile overwrites a file in place.
func (f *realFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// IsNotExist checks if an error indicates that a file or directory doesn't exist.
func (f *realFS) IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
