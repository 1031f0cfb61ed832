package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temporary file in the target's directory,
// then renames it over path. On failure the temporary file is removed and
// path is left untouched.
func (f *realFS) WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAtomicWrite, err)
	}

	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()

		return fmt.Errorf("%w: %w", ErrAtomicWrite, err)
	}

	if err = tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()

		return fmt.Errorf("%w: %w", ErrAtomicWrite, err)
	}

	if err = tmpFile.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrAtomicWrite, err)
	}

	if err = os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("%w: %w", ErrAtomicWrite, err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: %w", ErrAtomicWrite, err)
	}

	return nil
}
