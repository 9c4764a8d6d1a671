package encrypter

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"slices"
	"strings"

	"github.com/tjfoc/gmsm/sm4"
	"golang.org/x/crypto/chacha20poly1305"
)

// Mode distinguishes MAC-then-verify block modes from AEAD modes
type Mode int

const (
	// ModeCBC is a block cipher in CBC mode with PKCS#7 padding and an HMAC-SHA256 mac
	ModeCBC Mode = iota
	// ModeAEAD is an authenticated mode whose tag is carried in the payload
	ModeAEAD
)

// DefaultCipher is used when no cipher is configured
const DefaultCipher = "AES-256-CBC"

// tagSize is the authentication tag length of every supported AEAD
const tagSize = 16

// Spec describes one supported cipher
type Spec struct {
	Name    string
	KeySize int
	IVSize  int
	Mode    Mode

	newBlock func(key []byte) (cipher.Block, error)
	newAEAD  func(key []byte) (cipher.AEAD, error)
}

var registry = map[string]Spec{
	"AES-128-CBC": {Name: "AES-128-CBC", KeySize: 16, IVSize: aes.BlockSize, Mode: ModeCBC, newBlock: aes.NewCipher},
	"AES-256-CBC": {Name: "AES-256-CBC", KeySize: 32, IVSize: aes.BlockSize, Mode: ModeCBC, newBlock: aes.NewCipher},
	"AES-128-GCM": {Name: "AES-128-GCM", KeySize: 16, IVSize: 12, Mode: ModeAEAD, newAEAD: newGCM},
	"AES-256-GCM": {Name: "AES-256-GCM", KeySize: 32, IVSize: 12, Mode: ModeAEAD, newAEAD: newGCM},
	"SM4-CBC":     {Name: "SM4-CBC", KeySize: sm4.BlockSize, IVSize: sm4.BlockSize, Mode: ModeCBC, newBlock: sm4.NewCipher},
	"CHACHA20-POLY1305": {
		Name: "CHACHA20-POLY1305", KeySize: chacha20poly1305.KeySize, IVSize: chacha20poly1305.NonceSize,
		Mode: ModeAEAD, newAEAD: chacha20poly1305.New,
	},
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Lookup returns the spec for a cipher name, ignoring case
func Lookup(name string) (Spec, error) {
	spec, ok := registry[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedCipher, name, strings.Join(SupportedCiphers(), ", "))
	}
	return spec, nil
}

// SupportedCiphers lists every cipher name in sorted order
func SupportedCiphers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
