// Package config provides the configuration model of the code encrypter and
// its loader. Configuration files are TOML by default; YAML files are accepted
// when the file name ends in .yaml or .yml.
package config

import "github.com/isseis/go-code-encrypter/internal/encrypter"

// Default values applied by ApplyDefaults
const (
	DefaultFileName   = "code-encrypter.toml"
	DefaultCipher     = encrypter.DefaultCipher
	DefaultScratchDir = "tmp/code-encrypter"
	DefaultExtension  = "php"
	DefaultOpeningTag = "<?php"
	DefaultClosingTag = "?>"
	DefaultMarker     = `\Zephir`
	DefaultDecoysMin  = 4
	DefaultDecoysMax  = 8

	// MaxDecoys bounds the number of decoy routines per artifact
	MaxDecoys = 32
)

// Config is the root configuration
type Config struct {
	// Paths are the path patterns to process: a file or directory, "dir/*"
	// for the direct children of dir, or "dir/**" for every file below dir.
	Paths []string `toml:"paths" yaml:"paths"`

	Cipher string `toml:"cipher" yaml:"cipher"`
	Minify bool   `toml:"minify" yaml:"minify"`

	// ScratchDir receives the generated decoy artifact. It is emptied at the
	// start of every encode run.
	ScratchDir string `toml:"scratch_dir" yaml:"scratch_dir"`

	Extension  string `toml:"extension" yaml:"extension"`
	OpeningTag string `toml:"opening_tag" yaml:"opening_tag"`
	ClosingTag string `toml:"closing_tag" yaml:"closing_tag"`
	Marker     string `toml:"marker" yaml:"marker"`

	Decoys DecoyRange `toml:"decoys" yaml:"decoys"`
}

// DecoyRange is the inclusive range the decoy count is drawn from
type DecoyRange struct {
	Min int `toml:"min" yaml:"min"`
	Max int `toml:"max" yaml:"max"`
}

// ApplyDefaults fills every zero-valued field with its default
func ApplyDefaults(cfg *Config) {
	if cfg.Cipher == "" {
		cfg.Cipher = DefaultCipher
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = DefaultScratchDir
	}
	if cfg.Extension == "" {
		cfg.Extension = DefaultExtension
	}
	if cfg.OpeningTag == "" {
		cfg.OpeningTag = DefaultOpeningTag
	}
	if cfg.ClosingTag == "" {
		cfg.ClosingTag = DefaultClosingTag
	}
	if cfg.Marker == "" {
		cfg.Marker = DefaultMarker
	}
	if cfg.Decoys.Min == 0 && cfg.Decoys.Max == 0 {
		cfg.Decoys = DecoyRange{Min: DefaultDecoysMin, Max: DefaultDecoysMax}
	}
}

// Default returns a configuration with every default applied and no paths
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
