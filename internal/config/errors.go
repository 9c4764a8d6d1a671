package config

import (
	"errors"
	"fmt"
)

// Configuration loading and validation errors
var (
	// ErrInvalidConfigPath is returned when the config file path is invalid
	ErrInvalidConfigPath = errors.New("invalid config file path")

	// ErrUnsupportedFormat is returned for config files that are neither TOML nor YAML
	ErrUnsupportedFormat = errors.New("unsupported config file format")

	// ErrInvalidDecoyRange is returned when decoys.min/decoys.max are out of bounds
	ErrInvalidDecoyRange = errors.New("invalid decoy range")

	// ErrEmptyPathPattern is returned when an entry of paths is blank
	ErrEmptyPathPattern = errors.New("path pattern cannot be empty")

	// ErrConflictingTags is returned when the opening and closing tags are identical
	ErrConflictingTags = errors.New("opening tag and closing tag must differ")
)

// ErrEmptyField is returned when a required string field ends up empty
type ErrEmptyField struct {
	Field string
}

func (e *ErrEmptyField) Error() string {
	return fmt.Sprintf("config field %q cannot be empty", e.Field)
}
