package decoy

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	letters      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	alphanumeric = letters + "0123456789"
)

// source draws uniform values from a cryptographic reader
type source struct {
	r io.Reader
}

func newSource(r io.Reader) *source {
	if r == nil {
		r = rand.Reader
	}
	return &source{r: r}
}

// intn returns a uniform integer in [lo, hi]
func (s *source) intn(lo, hi int) (int, error) {
	if hi < lo {
		return 0, fmt.Errorf("invalid range [%d, %d]", lo, hi)
	}
	n, err := rand.Int(s.r, big.NewInt(int64(hi-lo+1)))
	if err != nil {
		return 0, fmt.Errorf("failed to read randomness: %w", err)
	}
	return lo + int(n.Int64()), nil
}

func (s *source) bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(s.r, b); err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	return b, nil
}

func (s *source) chars(alphabet string, n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		idx, err := s.intn(0, len(alphabet)-1)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx]
	}
	return string(out), nil
}

// identifier returns 4-8 letters followed by 8-12 letters or digits, which
// is a valid identifier that never starts with a digit.
func (s *source) identifier() (string, error) {
	headLen, err := s.intn(4, 8)
	if err != nil {
		return "", err
	}
	tailLen, err := s.intn(8, 12)
	if err != nil {
		return "", err
	}
	head, err := s.chars(letters, headLen)
	if err != nil {
		return "", err
	}
	tail, err := s.chars(alphanumeric, tailLen)
	if err != nil {
		return "", err
	}
	return head + tail, nil
}

// shuffle permutes methods in place (Fisher-Yates)
func (s *source) shuffle(methods []Method) error {
	for i := len(methods) - 1; i > 0; i-- {
		j, err := s.intn(0, i)
		if err != nil {
			return err
		}
		methods[i], methods[j] = methods[j], methods[i]
	}
	return nil
}
