package file

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound signals that the file could not be located.
	ErrFileNotFound = errors.New("file not found")
	// ErrDuplicateName is returned when the owner already has a file with the
	// requested name.
	ErrDuplicateName = errors.New("file name already in use")
	// ErrNameTooLong signals the file name exceeds the configured maximum.
	ErrNameTooLong = errors.New("file name too long")
	// ErrNameRequired signals an empty file name.
	ErrNameRequired = errors.New("file name required")
	// ErrFileTooLarge signals that a single file exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrTypeNotAllowed is returned for extensions outside the allowlist.
	ErrTypeNotAllowed = errors.New("file type not allowed")
	// ErrEmptyBatch is returned when a batch operation names no files.
	ErrEmptyBatch = errors.New("at least one file required")
	// ErrTooManyFiles signals the batch exceeds the configured maximum.
	ErrTooManyFiles = errors.New("too many files in one request")
	// ErrDownloadTooLarge signals the requested archive exceeds the transfer limit.
	ErrDownloadTooLarge = errors.New("total download size exceeds limit")
)

// BatchItemError wraps a validation failure with the position and name of the
// offending batch item so callers can report which file failed and why.
type BatchItemError struct {
	Index int
	Name  string
	Err   error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("file %q (item %d): %v", e.Name, e.Index+1, e.Err)
}

func (e *BatchItemError) Unwrap() error {
	return e.Err
}

// QuotaExceededError reports a denied storage admission together with the
// numbers needed for a user-facing message.
type QuotaExceededError struct {
	CurrentUsage  int64
	IncomingBytes int64
	Limit         int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("total file size will exceed your storage limit of %s", FormatBytes(e.Limit))
}
