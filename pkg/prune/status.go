package prune

// Status is the outcome of detection on one file.
type Status string

// Statuses.
const (
	// StatusClean means no unused imports were found.
	StatusClean Status = "clean"
	// StatusUnused means at least one unused import was found.
	StatusUnused Status = "unused"
	// StatusReadError means the file could not be read; nothing was analyzed.
	StatusReadError Status = "read_error"
	// StatusSyntaxError means the file failed to parse; nothing was analyzed.
	StatusSyntaxError Status = "syntax_error"
	// StatusBinary means the content looked binary; nothing was analyzed.
	StatusBinary Status = "binary"
	// StatusTooLarge means the file exceeded the size limit; nothing was analyzed.
	StatusTooLarge Status = "too_large"
	// StatusWriteError means unused imports were found but the rewrite failed.
	StatusWriteError Status = "write_error"
)

// Analyzed reports whether detection ran to completion.
func (s Status) Analyzed() bool {
	switch s {
	case StatusClean, StatusUnused, StatusWriteError:
		return true
	default:
		return false
	}
}
