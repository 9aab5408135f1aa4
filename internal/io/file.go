package ioutils

import (
	"errors"
	"io/fs"
	"os"
)

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("./data/yellow")
//	// Creates ./data and ./data/yellow if needed
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// Exists reports whether anything is present at path.
//
// Errors other than "not exist" (for example permission denied) are treated
// as present, so a file that cannot be inspected is never overwritten.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// CreateFile creates or truncates path for writing with mode 0644.
func CreateFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
}

// FileSize returns the size of the file at path.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// RemoveFile deletes path. A file that is already gone is not an error.
func RemoveFile(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
