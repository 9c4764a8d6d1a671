// Package scratch manages the caller-provided working directory an encode run
// writes its generated artifact into.
package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/isseis/go-code-encrypter/internal/common"
	"github.com/isseis/go-code-encrypter/internal/safefileio"
)

// Error definitions for the scratch package
var (
	// ErrUnsafeDir is returned for directories that must never be emptied
	ErrUnsafeDir = errors.New("refusing to use directory as scratch space")
	// ErrNotDirectory is returned when the scratch path exists but is not a directory
	ErrNotDirectory = errors.New("scratch path is not a directory")
	// ErrNotPrepared is returned when an artifact is written before Prepare
	ErrNotPrepared = errors.New("scratch directory not prepared")
	// ErrWrite wraps every failure to create, clear or write the directory
	ErrWrite = errors.New("failed to write scratch directory")
	// ErrOverlapsSources is returned when the scratch directory holds files the run works on
	ErrOverlapsSources = errors.New("scratch directory overlaps the source paths")
)

const (
	// MarkerFile records the run that last prepared the directory
	MarkerFile = ".code-encrypter-run"
	dirPerm    = 0o755
	filePerm   = 0o644
)

// ArtifactPath is the artifact location relative to the scratch directory
var ArtifactPath = filepath.Join("zephir", "zephir", "encrypter.zep")

// Workspace is a handle on one scratch directory. It is not safe for
// concurrent use, and two workspaces on the same directory race.
type Workspace struct {
	dir       string
	fs        common.FileSystem
	writeFile func(path string, content []byte, perm os.FileMode) error
	prepared  bool
}

// New returns a workspace for dir. Relative paths are made absolute against
// the working directory.
func New(dir string) (*Workspace, error) {
	return NewWithFS(dir, common.NewDefaultFileSystem())
}

// NewWithFS returns a workspace using a custom FileSystem
func NewWithFS(dir string, fsys common.FileSystem) (*Workspace, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrUnsafeDir)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsafeDir, err)
	}
	if abs == filepath.Dir(abs) {
		return nil, fmt.Errorf("%w: %s is a filesystem root", ErrUnsafeDir, abs)
	}
	return &Workspace{
		dir:       abs,
		fs:        fsys,
		writeFile: safefileio.SafeWriteFile,
	}, nil
}

// Dir returns the absolute scratch directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Prepare creates the directory if needed, removes everything inside it and
// records runID in the marker file. A non-empty directory is only emptied
// when an earlier Prepare left its marker there.
func (w *Workspace) Prepare(runID string) error {
	if err := w.fs.MkdirAll(w.dir, dirPerm); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, w.dir, err)
	}

	isDir, err := w.fs.IsDir(w.dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, w.dir, err)
	}
	if !isDir {
		return fmt.Errorf("%w: %s", ErrNotDirectory, w.dir)
	}

	entries, err := w.fs.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, w.dir, err)
	}

	if len(entries) > 0 && !hasMarker(entries) {
		return fmt.Errorf("%w: %s is not empty and has no %s marker", ErrUnsafeDir, w.dir, MarkerFile)
	}

	var errs []error
	for _, entry := range entries {
		path := filepath.Join(w.dir, entry.Name())
		if err := w.fs.RemoveAll(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrWrite, errors.Join(errs...))
	}

	if err := w.writeFile(filepath.Join(w.dir, MarkerFile), []byte(runID+"\n"), filePerm); err != nil {
		return fmt.Errorf("%w: marker: %w", ErrWrite, err)
	}

	w.prepared = true
	return nil
}

// Contains reports whether path is the scratch directory or lies below it.
// Both sides are compared with symlinks resolved as far as they exist.
func (w *Workspace) Contains(path string) bool {
	dir := w.resolve(w.dir)
	target := w.resolve(path)
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// resolve returns path with symlinks resolved in its longest existing prefix
func (w *Workspace) resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	var rest []string
	for current := abs; ; {
		if resolved, err := w.fs.RealPath(current); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs
		}
		rest = append([]string{filepath.Base(current)}, rest...)
		current = parent
	}
}

func hasMarker(entries []fs.DirEntry) bool {
	for _, entry := range entries {
		if entry.Name() == MarkerFile {
			return true
		}
	}
	return false
}

// WriteArtifact stores the generated source and returns its absolute path
func (w *Workspace) WriteArtifact(source string) (string, error) {
	if !w.prepared {
		return "", ErrNotPrepared
	}

	path := filepath.Join(w.dir, ArtifactPath)
	if err := w.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWrite, filepath.Dir(path), err)
	}
	if err := w.writeFile(path, []byte(source), filePerm); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	return path, nil
}

// Remove deletes the whole scratch directory
func (w *Workspace) Remove() error {
	if err := w.fs.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, w.dir, err)
	}
	w.prepared = false
	return nil
}
