package safefileio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
)

// MaxFileSize is the maximum allowed file size for SafeReadFile (128 MB)
const MaxFileSize = 128 * 1024 * 1024

// FileSystem is an interface that abstracts file system operations
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
}

// File is an interface that abstracts file operations
type File interface {
	io.Reader
	Write(b []byte) (n int, err error)
	Close() error
	Stat() (os.FileInfo, error)
}

var defaultFS FileSystem = osFS{}

// osFS implements FileSystem using the local disk
type osFS struct{}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	// #nosec G304 - The path is validated after opening to prevent TOCTOU attacks
	return os.OpenFile(name, flag, perm)
}

// SafeWriteFile creates filePath and writes content to it. It refuses to
// replace an existing file and refuses symlinks anywhere in the path.
func SafeWriteFile(filePath string, content []byte, perm os.FileMode) error {
	return writeFileWithFS(filePath, content, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm, defaultFS)
}

// SafeCreateFile creates filePath exclusively and returns the open file for
// streaming writes, such as a log file. Symlinks are rejected as in SafeWriteFile.
func SafeCreateFile(filePath string, perm os.FileMode) (*os.File, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	// #nosec G304 - The path is validated after opening to prevent TOCTOU attacks
	file, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL|syscall.O_NOFOLLOW, perm)
	if err != nil {
		return nil, openError(err)
	}

	if err := verifyPathComponents(absPath); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file, nil
}

// SafeOverwriteFile replaces the content of an existing regular file in place.
// The file keeps its mode; symlinks are rejected the same way as SafeWriteFile.
func SafeOverwriteFile(filePath string, content []byte) error {
	return writeFileWithFS(filePath, content, os.O_WRONLY|os.O_TRUNC, 0, defaultFS)
}

func writeFileWithFS(filePath string, content []byte, flag int, perm os.FileMode, fs FileSystem) (err error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	file, err := fs.OpenFile(absPath, flag|syscall.O_NOFOLLOW, perm)
	if err != nil {
		return openError(err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	// Directory components are checked after open so a swap between check and use is caught
	if err := verifyPathComponents(absPath); err != nil {
		return err
	}

	if _, err := validateFile(file, absPath); err != nil {
		return err
	}

	if _, err = file.Write(content); err != nil {
		return fmt.Errorf("failed to write to %s: %w", absPath, err)
	}

	return nil
}

// verifyPathComponents checks if any directory component of the path is a symlink.
func verifyPathComponents(absPath string) error {
	current := filepath.Dir(absPath)
	for {
		parent := filepath.Dir(current)
		if parent == current {
			break
		}

		fi, err := os.Lstat(current)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("failed to stat %s: %w", current, err)
		}

		if fi.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s", ErrIsSymlink, current)
		}

		current = parent
	}

	return nil
}

// SafeReadFile reads a regular file of at most MaxFileSize bytes, refusing
// symlinks in the path.
func SafeReadFile(filePath string) ([]byte, error) {
	return readFileWithFS(filePath, defaultFS)
}

func readFileWithFS(filePath string, fs FileSystem) ([]byte, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	file, err := fs.OpenFile(absPath, os.O_RDONLY|syscall.O_NOFOLLOW, 0)
	if err != nil {
		return nil, openError(err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("error closing file", "path", absPath, "error", closeErr)
		}
	}()

	if err := verifyPathComponents(absPath); err != nil {
		return nil, err
	}

	fileInfo, err := validateFile(file, absPath)
	if err != nil {
		return nil, err
	}

	if fileInfo.Size() > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	content, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if int64(len(content)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	return content, nil
}

// openError maps an O_NOFOLLOW open failure onto the package sentinels
func openError(err error) error {
	switch {
	case os.IsExist(err):
		return ErrFileExists
	case isNoFollowError(err):
		return ErrIsSymlink
	default:
		return fmt.Errorf("failed to open file: %w", err)
	}
}

// validateFile checks if the file is a regular file and returns its FileInfo.
// The descriptor is used rather than the path so the check covers the opened file.
func validateFile(file File, filePath string) (os.FileInfo, error) {
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file: %s", ErrInvalidFilePath, filePath)
	}

	return fileInfo, nil
}
