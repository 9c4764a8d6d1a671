// Package pipeline runs the encode and decode batches: resolve the configured
// patterns, classify each candidate, then rewrite eligible files in place.
//
// Runs are sequential and not transactional. A failure mid-batch leaves the
// files already processed rewritten and the rest untouched.
package pipeline

import (
	"context"
	"io"
	"log/slog"

	"github.com/isseis/go-code-encrypter/internal/classifier"
	"github.com/isseis/go-code-encrypter/internal/common"
	"github.com/isseis/go-code-encrypter/internal/decoy"
	"github.com/isseis/go-code-encrypter/internal/pathresolve"
	"github.com/isseis/go-code-encrypter/internal/safefileio"
	"github.com/isseis/go-code-encrypter/internal/stub"
)

// Pipeline holds the collaborators shared by Encode and Decode
type Pipeline struct {
	resolver   *pathresolve.Resolver
	classifier *classifier.Classifier
	format     stub.Format
	readFile   func(string) ([]byte, error)
	writeFile  func(string, []byte) error
	reporter   Reporter
	logger     *slog.Logger
	rand       io.Reader
	decoyOpts  []decoy.Option
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithFileSystem sets the filesystem used for path resolution
func WithFileSystem(fs common.FileSystem) Option {
	return func(p *Pipeline) {
		p.resolver = pathresolve.NewResolverWithFS(fs)
	}
}

// WithFileIO replaces the functions used to read and overwrite target files
func WithFileIO(readFile func(string) ([]byte, error), writeFile func(string, []byte) error) Option {
	return func(p *Pipeline) {
		p.readFile = readFile
		p.writeFile = writeFile
	}
}

// WithReporter sets the receiver of per-file outcomes
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) {
		p.reporter = r
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithRand sets the randomness used for keys, IVs and decoys
func WithRand(r io.Reader) Option {
	return func(p *Pipeline) {
		p.rand = r
		p.decoyOpts = append(p.decoyOpts, decoy.WithRand(r))
	}
}

// WithDecoyRange sets the inclusive decoy count range
func WithDecoyRange(lo, hi int) Option {
	return func(p *Pipeline) {
		p.decoyOpts = append(p.decoyOpts, decoy.WithDecoyRange(lo, hi))
	}
}

// New creates a pipeline for the given source-language rules
func New(rules classifier.Rules, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver:  pathresolve.NewResolver(),
		format:    stub.Format{OpeningTag: rules.OpeningTag, Marker: rules.Marker},
		readFile:  safefileio.SafeReadFile,
		writeFile: safefileio.SafeOverwriteFile,
		reporter:  discardReporter{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.classifier = classifier.New(rules, p.readFile)
	return p
}

// candidate is an eligible file together with the content it was classified on
type candidate struct {
	path    string
	content []byte
}

// collect resolves patterns and keeps the files classified as want. Files
// that cannot be read are returned as failures; other ineligible files go to
// skipped. A path listed by several patterns is kept once.
func (p *Pipeline) collect(ctx context.Context, patterns []string, want classifier.Classification) (eligible []candidate, skipped []string, failed []FileResult, err error) {
	seen := make(map[string]bool)
	for _, path := range p.resolver.Resolve(patterns) {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, newError(ErrCanceled, "", err)
		}
		if seen[path] {
			continue
		}
		seen[path] = true

		class, content, readErr := p.classifier.Classify(path)
		switch {
		case readErr != nil:
			failed = append(failed, FileResult{Path: path, Err: newError(ErrRead, path, readErr)})
		case class == want:
			eligible = append(eligible, candidate{path: path, content: content})
		default:
			skipped = append(skipped, path)
		}
	}
	return eligible, skipped, failed, nil
}
