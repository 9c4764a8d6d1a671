package encrypter

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// KeyPrefix marks a key string whose remainder is base64 encoded
const KeyPrefix = "base64:"

// GenerateKey returns a random key of the length the cipher requires
func GenerateKey(cipherName string) ([]byte, error) {
	spec, err := Lookup(cipherName)
	if err != nil {
		return nil, err
	}
	key := make([]byte, spec.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// ParseKey strips KeyPrefix and base64 decodes the rest. Keys without the
// prefix are used byte for byte.
func ParseKey(key string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return []byte(key), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid base64: %v", ErrInvalidKey, err)
	}
	return decoded, nil
}

// FormatKey renders key as KeyPrefix followed by its base64 encoding
func FormatKey(key []byte) string {
	return KeyPrefix + base64.StdEncoding.EncodeToString(key)
}
