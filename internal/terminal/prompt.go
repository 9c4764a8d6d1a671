package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Errors returned by Prompter
var (
	ErrNotTerminal = errors.New("stdin is not a terminal")
	ErrEmptyInput  = errors.New("no input given")
)

// Prompter reads secrets from the terminal without echoing them
type Prompter struct {
	fd           int
	out          io.Writer
	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
}

// NewPrompter creates a prompter reading stdin and writing prompts to out
func NewPrompter(out io.Writer) *Prompter {
	return &Prompter{
		fd:           int(os.Stdin.Fd()),
		out:          out,
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
	}
}

// ReadSecret prints label and reads one line with echo disabled
func (p *Prompter) ReadSecret(label string) (string, error) {
	if !p.isTerminal(p.fd) {
		return "", ErrNotTerminal
	}

	fmt.Fprintf(p.out, "%s: ", label)
	secret, err := p.readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}

	value := strings.TrimSpace(string(secret))
	if value == "" {
		return "", ErrEmptyInput
	}
	return value, nil
}
