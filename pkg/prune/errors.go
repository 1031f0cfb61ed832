package prune

import "errors"

// Sentinel errors.
var (
	// ErrPathNotFound indicates the target path does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrFileTooLarge indicates the file exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrBinaryFile indicates the content contains null bytes.
	ErrBinaryFile = errors.New("binary file")
	// ErrRead wraps failures reading the target file.
	ErrRead = errors.New("read file")
	// ErrWrite wraps failures writing the rewritten file.
	ErrWrite = errors.New("write file")
)
