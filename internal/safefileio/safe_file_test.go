package safefileio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// safeTempDir creates a temporary directory and resolves any symlinks in its path
// to ensure consistent behavior across different environments.
func safeTempDir(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	realPath, err := filepath.EvalSymlinks(tempDir)
	require.NoError(t, err, "Failed to resolve symlinks in temp dir")
	return realPath
}

func TestSafeWriteFile(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr error
	}{
		{
			name: "write to new file",
			setup: func(t *testing.T) string {
				return filepath.Join(safeTempDir(t), "new.zep")
			},
		},
		{
			name: "existing file is not replaced",
			setup: func(t *testing.T) string {
				path := filepath.Join(safeTempDir(t), "existing.zep")
				require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))
				return path
			},
			wantErr: ErrFileExists,
		},
		{
			name: "symlinked parent directory is rejected",
			setup: func(t *testing.T) string {
				tempDir := safeTempDir(t)
				target := filepath.Join(tempDir, "target")
				require.NoError(t, os.Mkdir(target, 0o755))
				link := filepath.Join(tempDir, "link")
				require.NoError(t, os.Symlink(target, link))
				return filepath.Join(link, "file.zep")
			},
			wantErr: ErrIsSymlink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			err := SafeWriteFile(path, []byte("content"), 0o644)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "content", string(got))
		})
	}
}

func TestSafeOverwriteFile(t *testing.T) {
	t.Run("replaces content and keeps mode", func(t *testing.T) {
		path := filepath.Join(safeTempDir(t), "a.php")
		require.NoError(t, os.WriteFile(path, []byte("<?php echo 'a much longer original body';"), 0o640))
		require.NoError(t, os.Chmod(path, 0o640))

		require.NoError(t, SafeOverwriteFile(path, []byte("short")))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "short", string(got))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	})

	t.Run("missing file is an error", func(t *testing.T) {
		err := SafeOverwriteFile(filepath.Join(safeTempDir(t), "missing.php"), []byte("x"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("symlink is rejected", func(t *testing.T) {
		tempDir := safeTempDir(t)
		target := filepath.Join(tempDir, "target.php")
		require.NoError(t, os.WriteFile(target, []byte("orig"), 0o600))
		link := filepath.Join(tempDir, "link.php")
		require.NoError(t, os.Symlink(target, link))

		err := SafeOverwriteFile(link, []byte("x"))
		assert.ErrorIs(t, err, ErrIsSymlink)

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "orig", string(got), "target must be untouched")
	})
}

func TestSafeReadFile(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		want    string
		wantErr error
		anyErr  bool
	}{
		{
			name: "read existing file",
			setup: func(t *testing.T) string {
				path := filepath.Join(safeTempDir(t), "a.php")
				require.NoError(t, os.WriteFile(path, []byte("<?php echo 1;"), 0o600))
				return path
			},
			want: "<?php echo 1;",
		},
		{
			name: "non-existent file",
			setup: func(t *testing.T) string {
				return filepath.Join(safeTempDir(t), "missing.php")
			},
			anyErr: true,
		},
		{
			name: "directory instead of file",
			setup: func(t *testing.T) string {
				return safeTempDir(t)
			},
			wantErr: ErrInvalidFilePath,
		},
		{
			name: "symlink to file",
			setup: func(t *testing.T) string {
				tempDir := safeTempDir(t)
				target := filepath.Join(tempDir, "target.php")
				require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))
				link := filepath.Join(tempDir, "link.php")
				require.NoError(t, os.Symlink(target, link))
				return link
			},
			wantErr: ErrIsSymlink,
		},
		{
			name: "file too large",
			setup: func(t *testing.T) string {
				path := filepath.Join(safeTempDir(t), "large.bin")
				f, err := os.Create(path)
				require.NoError(t, err)
				require.NoError(t, f.Truncate(MaxFileSize+1))
				require.NoError(t, f.Close())
				return path
			},
			wantErr: ErrFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeReadFile(tt.setup(t))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, string(got))
			}
		})
	}
}

type failingWriteFS struct{}

func (failingWriteFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
}

func TestWriteFileWithFS_OpenFailure(t *testing.T) {
	path := filepath.Join(safeTempDir(t), "x.php")
	err := writeFileWithFS(path, []byte("x"), os.O_WRONLY|os.O_CREATE, 0o600, failingWriteFS{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, err.Error(), "failed to open file")
}

func TestSafeCreateFile(t *testing.T) {
	dir := safeTempDir(t)
	path := filepath.Join(dir, "run.json")

	f, err := SafeCreateFile(path, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("{}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(content))

	_, err = SafeCreateFile(path, 0o600)
	assert.ErrorIs(t, err, ErrFileExists)

	link := filepath.Join(dir, "link.json")
	require.NoError(t, os.Symlink(path, link))
	_, err = SafeCreateFile(link, 0o600)
	assert.Error(t, err)
}
