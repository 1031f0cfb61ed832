package fs

import "errors"

// Error definitions for fs package.
var (
	// ErrAtomicWrite wraps failures of the temp-file-and-rename sequence.
	ErrAtomicWrite = errors.New("atomic write failed")
)
