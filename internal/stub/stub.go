// Package stub renders and parses the two-line replacement written in place
// of an encoded source file.
//
// Line one calls the decrypt entry point with the ciphertext, the IV and, for
// authenticated ciphers, the tag inlined, and ends with a version tag comment. Line two is a comment holding the full
// encoded payload; it is the only line read back when decoding.
package stub

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is the stub format written by Render
const Version = 1

const (
	payloadPrefix = "// base64:"
	versionPrefix = "// code-encrypter:v"
)

// Errors returned by Parse
var (
	ErrNotEncoded         = errors.New("content is not an encoded stub")
	ErrMalformed          = errors.New("encoded stub has no payload line")
	ErrUnsupportedVersion = errors.New("unsupported stub version")
)

var versionPattern = regexp.MustCompile(`// code-encrypter:v(\d+)\s*$`)

// Format describes the source-language pieces of a stub
type Format struct {
	OpeningTag string
	Marker     string
}

// Stub is a parsed encoded file
type Stub struct {
	Version int
	Payload string
}

// Render returns the stub for an encoded payload. value, iv and tag are the
// payload's fields; tag is empty for CBC ciphers and then left out of the call.
func (f Format) Render(payload, value, iv, tag string) string {
	args := fmt.Sprintf("%q, %q", value, iv)
	if tag != "" {
		args += fmt.Sprintf(", %q", tag)
	}
	return fmt.Sprintf("%s %s\\Encrypter::decrypt(%s); %s%d\n%s%s\n",
		f.OpeningTag, f.Marker, args, versionPrefix, Version, payloadPrefix, payload)
}

// Parse extracts the payload from an encoded file. A first line without a
// version tag is read as version 1.
func (f Format) Parse(content string) (*Stub, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, f.OpeningTag+" "+f.Marker) {
		return nil, ErrNotEncoded
	}

	firstLine, _, _ := strings.Cut(trimmed, "\n")
	version := Version
	if m := versionPattern.FindStringSubmatch(strings.TrimRight(firstLine, "\r")); m != nil {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, m[1])
		}
		version = v
	}
	if version != Version {
		return nil, fmt.Errorf("%w: v%d", ErrUnsupportedVersion, version)
	}

	_, after, found := strings.Cut(trimmed, payloadPrefix)
	if !found {
		return nil, ErrMalformed
	}
	payload, _, _ := strings.Cut(after, "\n")
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrMalformed
	}

	return &Stub{Version: version, Payload: payload}, nil
}
