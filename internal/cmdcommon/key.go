package cmdcommon

import (
	"errors"

	"github.com/isseis/go-code-encrypter/internal/terminal"
)

// SecretReader reads a secret interactively
type SecretReader interface {
	ReadSecret(label string) (string, error)
}

// RequireKey returns key when set and otherwise asks prompter. A prompter
// that cannot read, or no prompter at all, yields ErrKeyRequired.
func RequireKey(key string, prompter SecretReader) (string, error) {
	if key != "" {
		return key, nil
	}
	if prompter == nil {
		return "", ErrKeyRequired
	}
	secret, err := prompter.ReadSecret("Key")
	if errors.Is(err, terminal.ErrNotTerminal) || errors.Is(err, terminal.ErrEmptyInput) {
		return "", ErrKeyRequired
	}
	if err != nil {
		return "", err
	}
	return secret, nil
}
