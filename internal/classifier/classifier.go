// Package classifier decides whether a candidate file is plain source that
// may be encoded, an encoded stub that may be decoded, or neither.
package classifier

import (
	"bytes"
	"path/filepath"
	"strings"

)

// Classification is the outcome of inspecting a candidate file
type Classification int

const (
	// Skipped files are neither encoded nor decoded
	Skipped Classification = iota
	// PlainEligible files are plain source that can be encoded
	PlainEligible
	// EncodedEligible files carry the encoded marker and can be decoded
	EncodedEligible
)

func (c Classification) String() string {
	switch c {
	case PlainEligible:
		return "plain"
	case EncodedEligible:
		return "encoded"
	default:
		return "skipped"
	}
}

// Rules are the source-language conventions used for classification
type Rules struct {
	Extension  string // without the leading dot
	OpeningTag string
	ClosingTag string
	Marker     string
}

// MarkerPrefix is the text every encoded file starts with
func (r Rules) MarkerPrefix() string {
	return r.OpeningTag + " " + r.Marker
}

// Classifier inspects files according to Rules
type Classifier struct {
	rules    Rules
	readFile func(string) ([]byte, error)
}

// New creates a classifier that reads candidates with readFile
func New(rules Rules, readFile func(string) ([]byte, error)) *Classifier {
	return &Classifier{rules: rules, readFile: readFile}
}

// Classify reads path and classifies its content, returning the content so
// the caller acts on exactly the bytes that were classified. Files with
// another extension are skipped without being read.
func (c *Classifier) Classify(path string) (Classification, []byte, error) {
	if !c.hasExtension(path) {
		return Skipped, nil, nil
	}
	content, err := c.readFile(path)
	if err != nil {
		return Skipped, nil, err
	}
	return c.ClassifyContent(path, content), content, nil
}

// ClassifyContent classifies already-read content of path
func (c *Classifier) ClassifyContent(path string, content []byte) Classification {
	switch {
	case c.IsDecodeEligible(path, content):
		return EncodedEligible
	case c.IsEncodeEligible(path, content):
		return PlainEligible
	default:
		return Skipped
	}
}

// IsEncodeEligible reports whether content is plain source: it opens with
// the opening tag, not followed by the marker, and does not end with the
// closing tag
func (c *Classifier) IsEncodeEligible(path string, content []byte) bool {
	if !c.hasExtension(path) {
		return false
	}
	trimmed := string(bytes.TrimSpace(content))
	return strings.HasPrefix(trimmed, c.rules.OpeningTag) &&
		!strings.HasPrefix(trimmed, c.rules.MarkerPrefix()) &&
		!strings.HasSuffix(trimmed, c.rules.ClosingTag)
}

// IsDecodeEligible reports whether content is an encoded stub
func (c *Classifier) IsDecodeEligible(path string, content []byte) bool {
	if !c.hasExtension(path) {
		return false
	}
	return strings.HasPrefix(string(bytes.TrimSpace(content)), c.rules.MarkerPrefix())
}

// hasExtension reports whether path carries the source-file extension
func (c *Classifier) hasExtension(path string) bool {
	return strings.TrimPrefix(filepath.Ext(path), ".") == c.rules.Extension
}
