// Package safefileio reads and writes files without following symlinks in
// the final component or any parent directory.
package safefileio

import (
	"errors"
	"os"
)

var (
	// ErrInvalidFilePath indicates that the specified file path is invalid.
	ErrInvalidFilePath = errors.New("invalid file path")

	// ErrIsSymlink indicates that the path or one of its parents is a symbolic link.
	ErrIsSymlink = errors.New("path is a symbolic link")

	// ErrFileTooLarge indicates that the file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrFileExists indicates that an exclusive create found an existing file.
	ErrFileExists = errors.New("file exists")
)

// isNoFollowError reports whether an open failed because O_NOFOLLOW hit a symlink
func isNoFollowError(err error) bool {
	var e *os.PathError
	if !errors.As(err, &e) {
		return false
	}
	for _, errno := range noFollowErrnos {
		if errors.Is(e.Err, errno) {
			return true
		}
	}
	return false
}
