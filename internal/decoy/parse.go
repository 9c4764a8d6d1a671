package decoy

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedArtifact is returned when source text is not a generated artifact
var ErrMalformedArtifact = errors.New("malformed artifact")

var (
	dispatcherPattern = regexp.MustCompile(`public static function decrypt\(var (\w+), var (\w+), var (\w+) = null\)\s*\{\s*return eval\(self::(\w+)\(`)
	methodPattern     = regexp.MustCompile(
		`protected static function (\w+)\(var (\w+), var (\w+), var (\w+)\)\s*\{\s*` +
			`var (\w+);\s*let \w+ = \[([^\]]*)\];\s*` +
			`return openssl_decrypt\(\s*\w+,\s*"([^"]+)"`)
	fragmentPattern = regexp.MustCompile(`"([0-9a-fA-F]{2})"`)
)

// ParseArtifact recovers the dispatcher target and every routine's key from
// artifact source text, minified or not. The returned methods keep their
// order of appearance and have Real set on the dispatcher target.
func ParseArtifact(src string) (*Artifact, error) {
	d := dispatcherPattern.FindStringSubmatch(src)
	if d == nil {
		return nil, fmt.Errorf("%w: dispatcher not found", ErrMalformedArtifact)
	}

	a := &Artifact{
		Source:    src,
		DataParam: d[1],
		IVParam:   d[2],
		TagParam:  d[3],
		Entry:     d[4],
	}

	found := false
	for _, m := range methodPattern.FindAllStringSubmatch(src, -1) {
		var frags []string
		for _, f := range fragmentPattern.FindAllStringSubmatch(m[6], -1) {
			frags = append(frags, f[1])
		}
		key, err := Reassemble(frags)
		if err != nil {
			return nil, fmt.Errorf("%w: method %s: %w", ErrMalformedArtifact, m[1], err)
		}
		method := Method{
			Name:      m[1],
			DataParam: m[2],
			IVParam:   m[3],
			TagParam:  m[4],
			KeyVar:    m[5],
			Key:       key,
			Cipher:    strings.ToUpper(m[7]),
			Real:      m[1] == a.Entry,
		}
		if method.Real {
			found = true
		}
		a.Methods = append(a.Methods, method)
	}

	if !found {
		return nil, fmt.Errorf("%w: dispatcher target %s has no routine", ErrMalformedArtifact, a.Entry)
	}
	return a, nil
}

// Key returns the key of the routine the dispatcher calls
func (a *Artifact) Key() []byte {
	for _, m := range a.Methods {
		if m.Real {
			return m.Key
		}
	}
	return nil
}
