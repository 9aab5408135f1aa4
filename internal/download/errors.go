package download

import (
	"errors"
	"fmt"
)

// Run-level errors abort a run before any task starts.
var (
	ErrInvalidOptions    = errors.New("download: invalid options")
	ErrDirectoryCreation = errors.New("download: cannot create output directory")
	ErrNotInitialized    = errors.New("download: manager not initialized")
)

// Task-level errors are recorded in a task's Outcome and never stop other
// tasks.
var (
	ErrHTTPStatus   = errors.New("download: unexpected HTTP status")
	ErrSizeMismatch = errors.New("download: file size mismatch")
	ErrStalled      = errors.New("download: transfer stalled")
)

// StatusError reports a non-success response.
//
// Use errors.As to extract it, or errors.Is(err, ErrHTTPStatus) to test for it.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrHTTPStatus }

// SizeMismatchError reports a file whose size on disk differs from the
// expected size. Matches ErrSizeMismatch.
type SizeMismatchError struct {
	File     string
	Expected int64
	Actual   int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("file size mismatch for %s: expected %d bytes, got %d", e.File, e.Expected, e.Actual)
}

func (e *SizeMismatchError) Unwrap() error { return ErrSizeMismatch }
