// Package common holds the filesystem abstraction shared by the resolver,
// the config loader and the scratch workspace.
//
//nolint:revive // var-naming: package name "common" is intentional for shared internal utilities
package common

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrEmptyPath is returned by RealPath for an empty path
var ErrEmptyPath = errors.New("path cannot be empty")

// FileSystem is the set of directory and metadata operations the encrypter
// performs outside safefileio. Tests embed DefaultFileSystem and override the
// call they want to fail.
type FileSystem interface {
	// Stat follows symlinks
	Stat(path string) (fs.FileInfo, error)
	FileExists(path string) (bool, error)
	IsDir(path string) (bool, error)
	// ReadDir returns entries sorted by name
	ReadDir(path string) ([]fs.DirEntry, error)
	// WalkDir visits the tree in lexical order
	WalkDir(root string, fn fs.WalkDirFunc) error
	// RealPath returns the absolute path with every symlink resolved
	RealPath(path string) (string, error)
	RemoveAll(path string) error
	MkdirAll(path string, perm os.FileMode) error
}

// DefaultFileSystem is the os-backed FileSystem
type DefaultFileSystem struct{}

// NewDefaultFileSystem creates a new DefaultFileSystem
func NewDefaultFileSystem() *DefaultFileSystem {
	return &DefaultFileSystem{}
}

func (*DefaultFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// FileExists reports false without error when nothing is at path
func (*DefaultFileSystem) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (*DefaultFileSystem) IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (*DefaultFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

func (*DefaultFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

func (*DefaultFileSystem) RealPath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func (*DefaultFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (*DefaultFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
