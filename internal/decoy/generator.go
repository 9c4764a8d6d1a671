// Package decoy generates the auxiliary Zephir source that holds the real
// decrypt routine among randomly keyed look-alikes.
//
// Every routine has the same shape: a random name, random parameter names and
// a key stored as an array of 2-character hex fragments. The public
// dispatcher calls exactly one of them, the one keyed with the real key; the
// emission order is shuffled so neither name nor position gives it away.
package decoy

import (
	"bytes"
	"fmt"
	"io"

	"github.com/isseis/go-code-encrypter/internal/encrypter"
)

// Default decoy count range, inclusive
const (
	DefaultMinDecoys = 4
	DefaultMaxDecoys = 8
)

// Method is one decrypt routine in the artifact
type Method struct {
	Name      string
	DataParam string
	IVParam   string
	TagParam  string
	KeyVar    string
	Key       []byte
	Cipher    string
	Real      bool
}

// Fragments returns the key as emitted in the artifact
func (m Method) Fragments() []string {
	return Fragment(m.Key)
}

// Authenticated reports whether the routine passes the tag to
// openssl_decrypt, which is the case for AEAD ciphers only
func (m Method) Authenticated() bool {
	spec, err := encrypter.Lookup(m.Cipher)
	return err == nil && spec.Mode == encrypter.ModeAEAD
}

// Artifact is a generated source unit
type Artifact struct {
	// Source is the Zephir class text, minified if requested
	Source string
	// Entry is the name of the routine the dispatcher calls
	Entry string
	// DataParam, IVParam and TagParam are the dispatcher's parameter names;
	// the tag parameter defaults to null for CBC stubs
	DataParam string
	IVParam   string
	TagParam  string
	// Methods lists every routine in emission order
	Methods []Method
}

// Decoys returns the number of decorative routines
func (a *Artifact) Decoys() int {
	return len(a.Methods) - 1
}

// Generator builds artifacts
type Generator struct {
	src       *source
	minDecoys int
	maxDecoys int
	minify    bool
}

// Option configures a Generator
type Option func(*Generator)

// WithRand sets the randomness source for names, keys, counts and order
func WithRand(r io.Reader) Option {
	return func(g *Generator) {
		g.src = newSource(r)
	}
}

// WithDecoyRange sets the inclusive range the decoy count is drawn from
func WithDecoyRange(lo, hi int) Option {
	return func(g *Generator) {
		g.minDecoys = lo
		g.maxDecoys = hi
	}
}

// WithMinify pads every line with random spaces and joins the lines
func WithMinify(minify bool) Option {
	return func(g *Generator) {
		g.minify = minify
	}
}

// NewGenerator creates a generator
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		src:       newSource(nil),
		minDecoys: DefaultMinDecoys,
		maxDecoys: DefaultMaxDecoys,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds an artifact whose dispatcher decrypts with key. The key
// must fit the cipher; decoy keys are drawn fresh for every routine.
func (g *Generator) Generate(key []byte, cipherName string) (*Artifact, error) {
	spec, err := encrypter.Lookup(cipherName)
	if err != nil {
		return nil, err
	}
	if len(key) != spec.KeySize {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", encrypter.ErrInvalidKeyLength, spec.Name, spec.KeySize, len(key))
	}
	if g.minDecoys < 1 || g.maxDecoys < g.minDecoys {
		return nil, fmt.Errorf("invalid decoy range [%d, %d]", g.minDecoys, g.maxDecoys)
	}

	entry, err := g.src.identifier()
	if err != nil {
		return nil, err
	}
	data, err := g.src.identifier()
	if err != nil {
		return nil, err
	}
	iv, err := g.src.identifier()
	if err != nil {
		return nil, err
	}
	tag, err := g.src.identifier()
	if err != nil {
		return nil, err
	}

	target, err := g.method(entry, data, iv, tag, bytes.Clone(key), spec.Name)
	if err != nil {
		return nil, err
	}
	target.Real = true

	n, err := g.src.intn(g.minDecoys, g.maxDecoys)
	if err != nil {
		return nil, err
	}

	methods := make([]Method, 0, n+1)
	methods = append(methods, target)
	for range n {
		m, err := g.decoy(spec)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}

	if err := g.src.shuffle(methods); err != nil {
		return nil, err
	}

	text := render(entry, data, iv, tag, methods)
	if g.minify {
		text, err = g.minifySource(text)
		if err != nil {
			return nil, err
		}
	}

	return &Artifact{
		Source:    text,
		Entry:     entry,
		DataParam: data,
		IVParam:   iv,
		TagParam:  tag,
		Methods:   methods,
	}, nil
}

func (g *Generator) decoy(spec encrypter.Spec) (Method, error) {
	key, err := g.src.bytes(spec.KeySize)
	if err != nil {
		return Method{}, err
	}
	name, err := g.src.identifier()
	if err != nil {
		return Method{}, err
	}
	data, err := g.src.identifier()
	if err != nil {
		return Method{}, err
	}
	iv, err := g.src.identifier()
	if err != nil {
		return Method{}, err
	}
	tag, err := g.src.identifier()
	if err != nil {
		return Method{}, err
	}
	return g.method(name, data, iv, tag, key, spec.Name)
}

func (g *Generator) method(name, data, iv, tag string, key []byte, cipherName string) (Method, error) {
	keyVar, err := g.src.identifier()
	if err != nil {
		return Method{}, err
	}
	return Method{
		Name:      name,
		DataParam: data,
		IVParam:   iv,
		TagParam:  tag,
		KeyVar:    keyVar,
		Key:       key,
		Cipher:    cipherName,
	}, nil
}
