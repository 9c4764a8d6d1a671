package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/isseis/go-code-encrypter/internal/safefileio"
)

// Errors returned by Setup and ParseLevel
var (
	ErrInvalidLevel      = errors.New("invalid log level")
	ErrEmptyLogDirectory = errors.New("log directory cannot be empty")
)

const (
	logDirPerm  os.FileMode = 0o750
	logFilePerm os.FileMode = 0o600

	// SchemaVersion is written into every JSON log record
	SchemaVersion = 1
)

// Options configure Setup
type Options struct {
	Level slog.Level
	// Console receives human-readable output; stderr when nil
	Console io.Writer
	// LogDir, when set, receives one JSON log file per run
	LogDir string
	RunID  string
}

// Logger is the configured logger and the resources it holds
type Logger struct {
	*slog.Logger
	// LogPath is the JSON log file, empty when none was requested
	LogPath string
	file    *os.File
}

// Close flushes and closes the JSON log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ParseLevel converts a level name to a slog.Level
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q (want debug, info, warn or error)", ErrInvalidLevel, name)
	}
}

// Setup builds the logger described by opts. The caller decides whether to
// install it with slog.SetDefault and must Close it.
func Setup(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: opts.Level}),
	}

	result := &Logger{}
	if opts.LogDir != "" {
		file, path, err := openLogFile(opts.LogDir, opts.RunID)
		if err != nil {
			return nil, err
		}
		result.file = file
		result.LogPath = path

		hostname, _ := os.Hostname()
		jsonHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: opts.Level}).WithAttrs([]slog.Attr{
			slog.String("hostname", hostname),
			slog.Int("pid", os.Getpid()),
			slog.Int("schema_version", SchemaVersion),
			slog.String("run_id", opts.RunID),
		})
		handlers = append(handlers, jsonHandler)
	}

	multi, err := NewMultiHandler(handlers...)
	if err != nil {
		_ = result.Close()
		return nil, err
	}
	result.Logger = slog.New(NewRedactingHandler(multi, nil))
	return result, nil
}

// LogFileName returns the per-run JSON log file name
func LogFileName(hostname string, at time.Time, runID string) string {
	if hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s_%s_%s.json", hostname, at.UTC().Format("20060102T150405Z"), runID)
}

func openLogFile(dir, runID string) (*os.File, string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, "", ErrEmptyLogDirectory
	}
	if err := os.MkdirAll(dir, logDirPerm); err != nil {
		return nil, "", fmt.Errorf("cannot create log directory %s: %w", dir, err)
	}

	hostname, _ := os.Hostname()
	path := filepath.Join(dir, LogFileName(hostname, time.Now(), runID))
	file, err := safefileio.SafeCreateFile(path, logFilePerm)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, path, nil
}
