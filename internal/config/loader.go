package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/isseis/go-code-encrypter/internal/common"
	"github.com/isseis/go-code-encrypter/internal/safefileio"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a configuration file
type Format int

const (
	// FormatTOML is the default configuration format
	FormatTOML Format = iota
	// FormatYAML is selected by a .yaml or .yml extension
	FormatYAML
)

// FormatFromPath infers the format from a file name
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", "":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Loader handles loading and validating configurations
type Loader struct {
	fs       common.FileSystem
	readFile func(string) ([]byte, error)
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return NewLoaderWithFS(common.NewDefaultFileSystem())
}

// NewLoaderWithFS creates a new config loader with a custom FileSystem
func NewLoaderWithFS(fs common.FileSystem) *Loader {
	return &Loader{
		fs:       fs,
		readFile: safefileio.SafeReadFile,
	}
}

// LoadConfig loads the configuration at configPath. Relative path patterns and
// the scratch directory are resolved against the directory of the file.
//
// When optional is true and the file does not exist, the defaults are returned
// with relative paths resolved against baseDir.
func (l *Loader) LoadConfig(configPath string, optional bool, baseDir string) (*Config, error) {
	if configPath == "" {
		return nil, ErrInvalidConfigPath
	}

	exists, err := l.fs.FileExists(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfigPath, err)
	}
	if !exists {
		if !optional {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfigPath, configPath, fs.ErrNotExist)
		}
		cfg := Default()
		resolveRelative(cfg, baseDir)
		return cfg, nil
	}

	format, err := FormatFromPath(configPath)
	if err != nil {
		return nil, err
	}

	content, err := l.readFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	cfg, err := Parse(content, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfigPath, err)
	}
	resolveRelative(cfg, filepath.Dir(absConfig))

	return cfg, nil
}

// Parse decodes content in the given format, applies defaults and validates
// the result.
func Parse(content []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field values after defaults have been applied
func Validate(cfg *Config) error {
	for i, p := range cfg.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: paths[%d]", ErrEmptyPathPattern, i)
		}
	}

	fields := []struct {
		name  string
		value string
	}{
		{"cipher", cfg.Cipher},
		{"extension", cfg.Extension},
		{"opening_tag", cfg.OpeningTag},
		{"closing_tag", cfg.ClosingTag},
		{"marker", cfg.Marker},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ErrEmptyField{Field: f.name}
		}
	}

	if cfg.OpeningTag == cfg.ClosingTag {
		return ErrConflictingTags
	}

	d := cfg.Decoys
	if d.Min < 1 || d.Max < d.Min || d.Max > MaxDecoys {
		return fmt.Errorf("%w: min=%d max=%d (want 1 <= min <= max <= %d)", ErrInvalidDecoyRange, d.Min, d.Max, MaxDecoys)
	}

	return nil
}

func resolveRelative(cfg *Config, baseDir string) {
	if baseDir == "" {
		return
	}
	for i, p := range cfg.Paths {
		if !filepath.IsAbs(p) {
			cfg.Paths[i] = filepath.Join(baseDir, p)
		}
	}
	if !filepath.IsAbs(cfg.ScratchDir) {
		cfg.ScratchDir = filepath.Join(baseDir, cfg.ScratchDir)
	}
}

// IsNotExist reports whether err was caused by a missing config file
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
