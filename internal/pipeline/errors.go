package pipeline

import (
	"errors"
	"fmt"

	"github.com/isseis/go-code-encrypter/internal/encrypter"
	"github.com/isseis/go-code-encrypter/internal/scratch"
)

// Error kinds. Every error returned by Encode or Decode matches exactly one
// of them with errors.Is.
var (
	// ErrNoFiles is returned when no candidate file is eligible
	ErrNoFiles = errors.New("no eligible files")
	// ErrCipher is returned for an unknown cipher or a key of the wrong length
	ErrCipher = errors.New("cipher error")
	// ErrAuthentication is returned when a payload does not verify or decode
	ErrAuthentication = errors.New("authentication error")
	// ErrWrite is returned when the scratch directory or a target file cannot be written
	ErrWrite = errors.New("write error")
	// ErrRead is returned when a target file cannot be read
	ErrRead = errors.New("read error")
	// ErrCanceled is returned when the context ends mid-run; the cause is the
	// context's error, so errors.Is also matches context.Canceled
	ErrCanceled = errors.New("run canceled")
)

// Error carries the kind of a pipeline failure and the file it concerns
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// classify maps a lower-level error onto a kind
func classify(err error) error {
	switch {
	case encrypter.IsConfigError(err):
		return ErrCipher
	case encrypter.IsAuthError(err):
		return ErrAuthentication
	case errors.Is(err, scratch.ErrWrite), errors.Is(err, scratch.ErrNotDirectory), errors.Is(err, scratch.ErrNotPrepared):
		return ErrWrite
	default:
		return ErrCipher
	}
}
