// Package pathresolve expands configured path patterns into the list of
// candidate files an encode or decode run works on.
//
// A pattern is a file or directory path, optionally suffixed with "/*" (the
// regular files directly inside the directory) or "/**" (every regular file
// below the directory). A bare directory behaves like "/*". Paths that do not
// exist are skipped silently. Directory listings leave out hidden entries
// (names starting with "."); a hidden file named explicitly is still resolved.
package pathresolve

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/isseis/go-code-encrypter/internal/common"
)

const (
	shallowSuffix   = "/*"
	recursiveSuffix = "/**"
)

// Pattern is a parsed path pattern
type Pattern struct {
	Path      string
	Recursive bool
}

// ParsePattern strips the wildcard suffix and records whether a recursive
// listing was requested. Any run of trailing '/' and '*' characters is
// removed, so "dir/", "dir/*" and "dir/**" all name dir.
func ParsePattern(raw string) Pattern {
	recursive := strings.HasSuffix(raw, recursiveSuffix)
	path := strings.TrimRight(raw, "/*")
	if path == "" && strings.HasPrefix(raw, "/") {
		path = "/"
	}
	return Pattern{Path: path, Recursive: recursive}
}

// Resolver turns path patterns into canonical file paths
type Resolver struct {
	fs     common.FileSystem
	logger *slog.Logger
}

// NewResolver creates a resolver backed by the local file system
func NewResolver() *Resolver {
	return NewResolverWithFS(common.NewDefaultFileSystem())
}

// NewResolverWithFS creates a resolver with a custom FileSystem
func NewResolverWithFS(fs common.FileSystem) *Resolver {
	return &Resolver{fs: fs, logger: slog.Default()}
}

// Resolve expands patterns in order. The result may contain duplicates when
// patterns overlap. Entries that vanish or cannot be read while listing are
// skipped with a debug log.
func (r *Resolver) Resolve(patterns []string) []string {
	var files []string
	for _, raw := range patterns {
		files = append(files, r.resolveOne(ParsePattern(raw))...)
	}
	return files
}

func (r *Resolver) resolveOne(p Pattern) []string {
	if p.Path == "" {
		return nil
	}

	info, err := r.fs.Stat(p.Path)
	if err != nil {
		r.logger.Debug("Skipping path pattern", "path", p.Path, "error", err)
		return nil
	}

	switch {
	case info.Mode().IsRegular():
		if resolved, ok := r.realPath(p.Path); ok {
			return []string{resolved}
		}
		return nil
	case info.IsDir():
		if p.Recursive {
			return r.listRecursive(p.Path)
		}
		return r.listShallow(p.Path)
	default:
		return nil
	}
}

func (r *Resolver) listShallow(dir string) []string {
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		r.logger.Debug("Failed to list directory", "path", dir, "error", err)
		return nil
	}

	var files []string
	for _, entry := range entries {
		if isHidden(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !r.isRegular(path) {
			continue
		}
		if resolved, ok := r.realPath(path); ok {
			files = append(files, resolved)
		}
	}
	return files
}

func (r *Resolver) listRecursive(root string) []string {
	var files []string
	err := r.fs.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.logger.Debug("Failed to walk path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !r.isRegular(path) {
			return nil
		}
		if resolved, ok := r.realPath(path); ok {
			files = append(files, resolved)
		}
		return nil
	})
	if err != nil {
		r.logger.Debug("Walk aborted", "root", root, "error", err)
	}
	return files
}

// isRegular follows symlinks, so a link to a regular file counts as a file
func (r *Resolver) isRegular(path string) bool {
	info, err := r.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (r *Resolver) realPath(path string) (string, bool) {
	resolved, err := r.fs.RealPath(path)
	if err != nil {
		r.logger.Debug("Failed to resolve path", "path", path, "error", err)
		return "", false
	}
	return resolved, true
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
