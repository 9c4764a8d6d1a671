// Package cmdcommon provides the flag, configuration, key and output
// plumbing shared by the encrypt and decrypt commands.
package cmdcommon

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/isseis/go-code-encrypter/internal/classifier"
	"github.com/isseis/go-code-encrypter/internal/config"
	"github.com/isseis/go-code-encrypter/internal/logging"
)

// Environment variables read by both commands
const (
	EnvKey    = "CODE_ENCRYPTER_KEY"
	EnvCipher = "CODE_ENCRYPTER_CIPHER"
)

// Errors returned while resolving settings
var (
	ErrKeyRequired = errors.New("a key is required: pass -key, set " + EnvKey + " or run from a terminal to be prompted")
	ErrNoPaths     = errors.New("no paths to process: set paths in the configuration file or pass them as arguments")
)

// Flags are the options common to both commands
type Flags struct {
	ConfigPath string
	EnvFile    string
	Key        string
	Cipher     string
	LogLevel   string
	LogDir     string
	Color      bool
	NoColor    bool
}

// Register defines the common flags on fs
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to the configuration file (default: ./"+config.DefaultFileName+" if present)")
	fs.StringVar(&f.EnvFile, "env-file", "", "Read "+EnvKey+" and "+EnvCipher+" from this .env file")
	fs.StringVar(&f.Key, "key", "", "Encryption key, raw or base64: prefixed")
	fs.StringVar(&f.Cipher, "cipher", "", "Cipher name, overriding the configuration")
	fs.StringVar(&f.LogLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogDir, "log-dir", "", "Directory for per-run JSON log files")
	fs.BoolVar(&f.Color, "color", false, "Force colored status output")
	fs.BoolVar(&f.NoColor, "no-color", false, "Disable colored status output")
}

// Settings is the resolved input of one run
type Settings struct {
	Config *config.Config
	// Key is empty when neither a flag nor the environment supplied one
	Key    string
	Cipher string
}

// Resolve loads configuration and environment and applies the precedence
// flag > environment > configuration file > default. Path patterns given as
// arguments replace the configured ones.
func Resolve(f Flags, args []string, lookupEnv func(string) (string, bool)) (*Settings, error) {
	cfg, err := LoadConfig(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Paths = slices.Clone(args)
	}
	if len(cfg.Paths) == 0 {
		return nil, ErrNoPaths
	}

	env, err := LoadEnvironment(f.EnvFile, lookupEnv)
	if err != nil {
		return nil, err
	}

	return &Settings{
		Config: cfg,
		Key:    firstNonEmpty(f.Key, env[EnvKey]),
		Cipher: firstNonEmpty(f.Cipher, env[EnvCipher], cfg.Cipher),
	}, nil
}

// LoadConfig loads path, or the default file in the working directory when
// path is empty. Only the default file may be missing.
func LoadConfig(path string) (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	optional := path == ""
	if optional {
		path = filepath.Join(wd, config.DefaultFileName)
	}

	cfg, err := config.NewLoader().LoadConfig(path, optional, wd)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// Rules returns the source-language conventions from the configuration
func Rules(cfg *config.Config) classifier.Rules {
	return classifier.Rules{
		Extension:  cfg.Extension,
		OpeningTag: cfg.OpeningTag,
		ClosingTag: cfg.ClosingTag,
		Marker:     cfg.Marker,
	}
}

// SetupLogger builds the run's logger on stderr and installs it as the slog
// default. The caller must Close it.
func SetupLogger(f Flags, stderr io.Writer, runID string) (*logging.Logger, error) {
	level, err := logging.ParseLevel(f.LogLevel)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Setup(logging.Options{
		Level:   level,
		Console: stderr,
		LogDir:  f.LogDir,
		RunID:   runID,
	})
	if err != nil {
		return nil, err
	}
	return logger, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
