package decoy

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"

	"github.com/isseis/go-code-encrypter/internal/encrypter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z]{4,8}[A-Za-z0-9]{8,12}$`)

func seeded(seed byte) *rand.ChaCha8 {
	var s [32]byte
	s[0] = seed
	return rand.NewChaCha8(s)
}

func testKey(t *testing.T, cipherName string) []byte {
	t.Helper()
	spec, err := encrypter.Lookup(cipherName)
	require.NoError(t, err)
	return bytes.Repeat([]byte{0x5a}, spec.KeySize)
}

func TestGenerate_Structure(t *testing.T) {
	for _, cipherName := range encrypter.SupportedCiphers() {
		t.Run(cipherName, func(t *testing.T) {
			key := testKey(t, cipherName)
			g := NewGenerator(WithRand(seeded(1)))

			a, err := g.Generate(key, cipherName)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, len(a.Methods), DefaultMinDecoys+1)
			assert.LessOrEqual(t, len(a.Methods), DefaultMaxDecoys+1)
			assert.True(t, strings.HasPrefix(a.Source, "namespace Zephir;"))
			assert.Contains(t, a.Source, "class Encrypter")
			assert.Contains(t, a.Source, "eval(self::"+a.Entry+"(")

			realCount := 0
			for _, m := range a.Methods {
				assert.Regexp(t, identifierPattern, m.Name)
				assert.Regexp(t, identifierPattern, m.DataParam)
				assert.Regexp(t, identifierPattern, m.KeyVar)
				assert.Len(t, m.Key, len(key))
				assert.Equal(t, cipherName, m.Cipher)
				assert.Contains(t, a.Source, arrayLiteral(m.Fragments()))
				if m.Real {
					realCount++
					assert.Equal(t, a.Entry, m.Name)
					assert.Equal(t, key, m.Key)
				}
			}
			assert.Equal(t, 1, realCount)
		})
	}
}

func TestGenerate_DecoyRange(t *testing.T) {
	for seed := range byte(20) {
		g := NewGenerator(WithRand(seeded(seed)), WithDecoyRange(2, 3))
		a, err := g.Generate(testKey(t, "AES-128-CBC"), "AES-128-CBC")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, a.Decoys(), 2)
		assert.LessOrEqual(t, a.Decoys(), 3)
	}
}

func TestGenerate_RealMethodPositionVaries(t *testing.T) {
	positions := map[int]bool{}
	for seed := range byte(40) {
		g := NewGenerator(WithRand(seeded(seed)))
		a, err := g.Generate(testKey(t, "AES-256-CBC"), "AES-256-CBC")
		require.NoError(t, err)
		for i, m := range a.Methods {
			if m.Real {
				positions[i] = true
			}
		}
	}
	assert.Greater(t, len(positions), 1)
}

func TestGenerate_Deterministic(t *testing.T) {
	key := testKey(t, "SM4-CBC")
	a1, err := NewGenerator(WithRand(seeded(7))).Generate(key, "SM4-CBC")
	require.NoError(t, err)
	a2, err := NewGenerator(WithRand(seeded(7))).Generate(key, "SM4-CBC")
	require.NoError(t, err)
	assert.Equal(t, a1.Source, a2.Source)

	a3, err := NewGenerator(WithRand(seeded(8))).Generate(key, "SM4-CBC")
	require.NoError(t, err)
	assert.NotEqual(t, a1.Source, a3.Source)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		cipher  string
		opts    []Option
		wantErr error
	}{
		{name: "unsupported cipher", key: make([]byte, 16), cipher: "DES-CBC", wantErr: encrypter.ErrUnsupportedCipher},
		{name: "wrong key length", key: make([]byte, 16), cipher: "AES-256-CBC", wantErr: encrypter.ErrInvalidKeyLength},
		{name: "empty decoy range", key: make([]byte, 16), cipher: "AES-128-CBC", opts: []Option{WithDecoyRange(0, 3)}},
		{name: "inverted decoy range", key: make([]byte, 16), cipher: "AES-128-CBC", opts: []Option{WithDecoyRange(5, 2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(tt.opts...).Generate(tt.key, tt.cipher)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerate_RandomnessFailure(t *testing.T) {
	_, err := NewGenerator(WithRand(failingReader{})).Generate(make([]byte, 16), "AES-128-CBC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestMinify(t *testing.T) {
	key := testKey(t, "AES-128-CBC")
	plain, err := NewGenerator(WithRand(seeded(3))).Generate(key, "AES-128-CBC")
	require.NoError(t, err)
	minified, err := NewGenerator(WithRand(seeded(3)), WithMinify(true)).Generate(key, "AES-128-CBC")
	require.NoError(t, err)

	assert.NotContains(t, minified.Source, "\n")
	assert.True(t, strings.HasPrefix(minified.Source, " "))
	assert.True(t, strings.HasSuffix(minified.Source, " "))
	assert.Equal(t, plain.Entry, minified.Entry)

	// every line survives intact, padded by at least one space on each side
	for _, line := range strings.Split(strings.TrimSuffix(plain.Source, "\n"), "\n") {
		if line == "" {
			continue
		}
		assert.Contains(t, minified.Source, " "+line+" ")
	}
}

func TestParseArtifact(t *testing.T) {
	key := testKey(t, "AES-256-GCM")
	for _, minify := range []bool{false, true} {
		a, err := NewGenerator(WithRand(seeded(11)), WithMinify(minify)).Generate(key, "AES-256-GCM")
		require.NoError(t, err)

		parsed, err := ParseArtifact(a.Source)
		require.NoError(t, err)

		assert.Equal(t, a.Entry, parsed.Entry)
		assert.Equal(t, a.DataParam, parsed.DataParam)
		assert.Equal(t, a.IVParam, parsed.IVParam)
		assert.Equal(t, a.TagParam, parsed.TagParam)
		assert.Equal(t, key, parsed.Key())
		require.Len(t, parsed.Methods, len(a.Methods))
		for i := range a.Methods {
			assert.Equal(t, a.Methods[i], parsed.Methods[i])
		}
	}
}

func TestGenerate_TagArgument(t *testing.T) {
	tests := []struct {
		cipher string
		tagged bool
	}{
		{cipher: "AES-256-GCM", tagged: true},
		{cipher: "AES-128-GCM", tagged: true},
		{cipher: "CHACHA20-POLY1305", tagged: true},
		{cipher: "AES-256-CBC"},
		{cipher: "SM4-CBC"},
	}

	for _, tt := range tests {
		t.Run(tt.cipher, func(t *testing.T) {
			a, err := NewGenerator(WithRand(seeded(5))).Generate(testKey(t, tt.cipher), tt.cipher)
			require.NoError(t, err)

			assert.Contains(t, a.Source, fmt.Sprintf("decrypt(var %s, var %s, var %s = null)", a.DataParam, a.IVParam, a.TagParam))
			assert.Contains(t, a.Source, fmt.Sprintf("self::%s(%s, %s, %s)", a.Entry, a.DataParam, a.IVParam, a.TagParam))

			for _, m := range a.Methods {
				assert.Equal(t, tt.tagged, m.Authenticated())
				ivArg := "base64_decode(" + m.IVParam + ")"
				tagArg := "base64_decode(" + m.TagParam + ")"
				if tt.tagged {
					assert.Contains(t, a.Source, ivArg+",\n"+indent+indent+indent+tagArg+"\n")
				} else {
					assert.Contains(t, a.Source, ivArg+"\n")
					assert.NotContains(t, a.Source, tagArg)
				}
			}
		})
	}
}

func TestParseArtifact_Malformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "empty", src: ""},
		{name: "no dispatcher", src: "namespace Zephir;\nclass Encrypter\n{\n}\n"},
		{
			name: "dangling target",
			src: "class Encrypter {\n    public static function decrypt(var d, var i, var t = null)\n    {\n" +
				"        return eval(self::missingRoutine01(d, i, t));\n    }\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArtifact(tt.src)
			assert.ErrorIs(t, err, ErrMalformedArtifact)
		})
	}
}

func TestFragment(t *testing.T) {
	frags := Fragment([]byte{0x00, 0xab, 0x7f})
	assert.Equal(t, []string{"00", "ab", "7f"}, frags)
	assert.Equal(t, `["00","ab","7f"]`, arrayLiteral(frags))

	key, err := Reassemble(frags)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xab, 0x7f}, key)

	_, err = Reassemble([]string{"zz"})
	assert.Error(t, err)
}
