package cmdcommon

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/isseis/go-code-encrypter/internal/color"
	"github.com/isseis/go-code-encrypter/internal/config"
	"github.com/isseis/go-code-encrypter/internal/pipeline"
	"github.com/isseis/go-code-encrypter/internal/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	t.Chdir(dir)
	return dir
}

func TestRegister(t *testing.T) {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Register(fs)

	require.NoError(t, fs.Parse([]string{"-config", "c.toml", "-key", "k", "-cipher", "SM4-CBC", "-log-level", "debug", "-no-color"}))
	assert.Equal(t, Flags{ConfigPath: "c.toml", Key: "k", Cipher: "SM4-CBC", LogLevel: "debug", NoColor: true}, f)
}

func TestResolve_Precedence(t *testing.T) {
	dir := chdirTemp(t)
	writeFile(t, filepath.Join(dir, config.DefaultFileName), "paths = [\"src/**\"]\ncipher = \"AES-128-CBC\"\n")
	writeFile(t, filepath.Join(dir, ".env"), EnvCipher+"=AES-128-GCM\n"+EnvKey+"=base64:ZmlsZQ==\n")

	tests := []struct {
		name       string
		flags      Flags
		env        map[string]string
		wantKey    string
		wantCipher string
	}{
		{name: "config only", wantCipher: "AES-128-CBC"},
		{
			name:       "process env beats config",
			env:        map[string]string{EnvCipher: "SM4-CBC", EnvKey: "base64:ZW52"},
			wantKey:    "base64:ZW52",
			wantCipher: "SM4-CBC",
		},
		{
			name:       "env file beats process env",
			flags:      Flags{EnvFile: ".env"},
			env:        map[string]string{EnvCipher: "SM4-CBC"},
			wantKey:    "base64:ZmlsZQ==",
			wantCipher: "AES-128-GCM",
		},
		{
			name:       "flags beat everything",
			flags:      Flags{EnvFile: ".env", Key: "base64:ZmxhZw==", Cipher: "CHACHA20-POLY1305"},
			wantKey:    "base64:ZmxhZw==",
			wantCipher: "CHACHA20-POLY1305",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Resolve(tt.flags, nil, envOf(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, s.Key)
			assert.Equal(t, tt.wantCipher, s.Cipher)
			assert.Equal(t, []string{filepath.Join(dir, "src/**")}, s.Config.Paths)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Run("no default config means no paths", func(t *testing.T) {
		chdirTemp(t)
		_, err := Resolve(Flags{}, nil, noEnv)
		assert.ErrorIs(t, err, ErrNoPaths)
	})

	t.Run("explicit config must exist", func(t *testing.T) {
		dir := chdirTemp(t)
		_, err := Resolve(Flags{ConfigPath: filepath.Join(dir, "missing.toml")}, nil, noEnv)
		assert.ErrorIs(t, err, config.ErrInvalidConfigPath)
	})

	t.Run("missing env file", func(t *testing.T) {
		dir := chdirTemp(t)
		writeFile(t, filepath.Join(dir, "c.yaml"), "paths:\n  - app\n")
		_, err := Resolve(Flags{ConfigPath: "c.yaml", EnvFile: "nope.env"}, nil, noEnv)
		assert.Error(t, err)
	})
}

func TestResolve_ArgumentsReplacePaths(t *testing.T) {
	dir := chdirTemp(t)
	writeFile(t, filepath.Join(dir, config.DefaultFileName), "paths = [\"src/**\"]\nextension = \"phtml\"\n")

	s, err := Resolve(Flags{}, []string{"app/*", "index.phtml"}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/*", "index.phtml"}, s.Config.Paths)
	assert.Equal(t, config.DefaultCipher, s.Cipher)

	rules := Rules(s.Config)
	assert.Equal(t, "phtml", rules.Extension)
	assert.Equal(t, config.DefaultOpeningTag, rules.OpeningTag)
	assert.Equal(t, config.DefaultMarker, rules.Marker)
}

func TestLoadEnvironment_IgnoresOtherVariables(t *testing.T) {
	dir := chdirTemp(t)
	writeFile(t, filepath.Join(dir, ".env"), "OTHER=1\n# comment\n"+EnvKey+"=\"quoted value\"\n")

	env, err := LoadEnvironment(".env", envOf(map[string]string{"HOME": "/root", EnvCipher: ""}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{EnvKey: "quoted value"}, env)
}

type fakePrompter struct {
	secret string
	err    error
	calls  int
}

func (p *fakePrompter) ReadSecret(string) (string, error) {
	p.calls++
	return p.secret, p.err
}

func TestRequireKey(t *testing.T) {
	errBroken := errors.New("broken tty")

	tests := []struct {
		name     string
		key      string
		prompter SecretReader
		want     string
		wantErr  error
	}{
		{name: "given key", key: "k", prompter: &fakePrompter{secret: "other"}, want: "k"},
		{name: "prompted", prompter: &fakePrompter{secret: "typed"}, want: "typed"},
		{name: "no prompter", wantErr: ErrKeyRequired},
		{name: "not a terminal", prompter: &fakePrompter{err: terminal.ErrNotTerminal}, wantErr: ErrKeyRequired},
		{name: "empty input", prompter: &fakePrompter{err: terminal.ErrEmptyInput}, wantErr: ErrKeyRequired},
		{name: "read failure", prompter: &fakePrompter{err: errBroken}, wantErr: errBroken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequireKey(tt.key, tt.prompter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusPrinter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	p := NewStatusPrinter(&stdout, &stderr, color.NewPalette(false))

	p.Report("/src/a.php", pipeline.StatusEncrypted, nil)
	p.Report("/src/b.php", pipeline.StatusNotEncrypted, errors.New("disk full"))
	p.Report("/src/c.txt", pipeline.StatusInvalidFile, nil)

	assert.Equal(t,
		"Encrypted     /src/a.php\n"+
			"Not Encrypted /src/b.php\n"+
			"Invalid File  /src/c.txt\n",
		stdout.String())
	assert.Equal(t, "Error processing /src/b.php: disk full\n", stderr.String())
}

func TestStatusPrinter_Colored(t *testing.T) {
	var stdout bytes.Buffer
	p := NewStatusPrinter(&stdout, &bytes.Buffer{}, color.NewPalette(true))

	p.Report("/src/a.php", pipeline.StatusEncrypted, nil)
	assert.Equal(t, color.Green("Encrypted    ")+" /src/a.php\n", stdout.String())
}

func TestSetupLogger(t *testing.T) {
	var stderr bytes.Buffer
	logger, err := SetupLogger(Flags{LogLevel: "info"}, &stderr, "RUN")
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("hello")
	assert.Contains(t, stderr.String(), "hello")

	_, err = SetupLogger(Flags{LogLevel: "loud"}, &stderr, "RUN")
	assert.Error(t, err)
}
