package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/isseis/go-code-encrypter/internal/classifier"
	"github.com/isseis/go-code-encrypter/internal/decoy"
	"github.com/isseis/go-code-encrypter/internal/encrypter"
	"github.com/isseis/go-code-encrypter/internal/scratch"
)

// EncodeRequest describes one encode run
type EncodeRequest struct {
	Patterns []string
	// Key is the key string, optionally base64: prefixed. A fresh key is
	// generated when empty.
	Key    string
	Cipher string
	Minify bool
	// Workspace receives the decoy artifact; it is emptied first
	Workspace *scratch.Workspace
	RunID     string
}

// EncodeResult is what the caller needs to keep after an encode run
type EncodeResult struct {
	// Key is the key in base64: form; it is required to decode
	Key          string
	Cipher       string
	ArtifactPath string
	ScratchDir   string
	Files        []FileResult
}

// Encoded returns the number of files rewritten
func (r *EncodeResult) Encoded() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == StatusEncrypted {
			n++
		}
	}
	return n
}

// Encode encrypts every plain eligible file under the request's patterns.
//
// Ineligible files are reported as invalid and left alone. Key, cipher and
// artifact are settled before any file is touched; a failure there aborts the
// run. A file that cannot be written is reported and the batch continues,
// while an encryption failure aborts the remaining files.
func (p *Pipeline) Encode(ctx context.Context, req EncodeRequest) (*EncodeResult, error) {
	eligible, skipped, failed, err := p.collect(ctx, req.Patterns, classifier.PlainEligible)
	if err != nil {
		return nil, err
	}

	result := &EncodeResult{}
	for _, path := range skipped {
		p.record(&result.Files, FileResult{Path: path, Status: StatusInvalidFile})
	}
	for _, f := range failed {
		f.Status = StatusNotEncrypted
		p.record(&result.Files, f)
	}

	if len(eligible) == 0 {
		return result, newError(ErrNoFiles, "", nil)
	}
	if err := checkScratch(req.Workspace, eligible, failed); err != nil {
		return result, err
	}

	enc, err := p.newEncrypter(req.Key, req.Cipher)
	if err != nil {
		return result, err
	}
	result.Key = encrypter.FormatKey(enc.Key())
	result.Cipher = enc.Cipher()

	artifactPath, err := p.writeArtifact(enc, req)
	if err != nil {
		return result, err
	}
	result.ArtifactPath = artifactPath
	result.ScratchDir = req.Workspace.Dir()

	p.logger.Info("Encoding files",
		"files", len(eligible),
		"cipher", result.Cipher,
		"artifact", artifactPath)

	for _, c := range eligible {
		if err := ctx.Err(); err != nil {
			return result, newError(ErrCanceled, "", err)
		}

		_, body, _ := strings.Cut(string(c.content), p.format.OpeningTag)
		payload, err := enc.Encrypt([]byte(body))
		if err != nil {
			return result, newError(classify(err), c.path, err)
		}
		encoded, err := payload.Encode()
		if err != nil {
			return result, newError(ErrCipher, c.path, err)
		}

		content := p.format.Render(encoded, payload.Value, payload.IV, payload.Tag)
		if err := p.writeFile(c.path, []byte(content)); err != nil {
			p.record(&result.Files, FileResult{Path: c.path, Status: StatusNotEncrypted, Err: newError(ErrWrite, c.path, err)})
			continue
		}
		p.record(&result.Files, FileResult{Path: c.path, Status: StatusEncrypted})
	}

	return result, nil
}

func (p *Pipeline) newEncrypter(keyString, cipherName string) (*encrypter.Encrypter, error) {
	if cipherName == "" {
		cipherName = encrypter.DefaultCipher
	}
	var (
		key []byte
		err error
	)
	if keyString == "" {
		key, err = encrypter.GenerateKey(cipherName)
	} else {
		key, err = encrypter.ParseKey(keyString)
	}
	if err != nil {
		return nil, newError(ErrCipher, "", err)
	}

	var opts []encrypter.Option
	if p.rand != nil {
		opts = append(opts, encrypter.WithRand(p.rand))
	}
	enc, err := encrypter.New(key, cipherName, opts...)
	if err != nil {
		return nil, newError(ErrCipher, "", err)
	}
	return enc, nil
}

// writeArtifact generates the decoy source for the real key and stores it in
// the request's workspace
func (p *Pipeline) writeArtifact(enc *encrypter.Encrypter, req EncodeRequest) (string, error) {
	if req.Workspace == nil {
		return "", newError(ErrWrite, "", errors.New("no scratch workspace"))
	}

	opts := append([]decoy.Option{decoy.WithMinify(req.Minify)}, p.decoyOpts...)
	artifact, err := decoy.NewGenerator(opts...).Generate(enc.Key(), enc.Cipher())
	if err != nil {
		return "", newError(classify(err), "", err)
	}
	p.logger.Debug("Generated decoy artifact", "methods", len(artifact.Methods), "minified", req.Minify)

	if err := req.Workspace.Prepare(req.RunID); err != nil {
		return "", newError(ErrWrite, req.Workspace.Dir(), err)
	}
	path, err := req.Workspace.WriteArtifact(artifact.Source)
	if err != nil {
		return "", newError(ErrWrite, path, err)
	}
	return path, nil
}

// checkScratch refuses a workspace whose clearing would delete a file the run
// is about to rewrite. Ineligible files inside a marked scratch directory are
// leftovers of an earlier run; inside an unmarked one Prepare refuses anyway.
func checkScratch(ws *scratch.Workspace, eligible []candidate, failed []FileResult) error {
	if ws == nil {
		return nil
	}
	paths := make([]string, 0, len(eligible)+len(failed))
	for _, c := range eligible {
		paths = append(paths, c.path)
	}
	for _, f := range failed {
		paths = append(paths, f.Path)
	}
	for _, path := range paths {
		if ws.Contains(path) {
			return newError(ErrWrite, ws.Dir(), fmt.Errorf("%w: %s", scratch.ErrOverlapsSources, path))
		}
	}
	return nil
}

func (p *Pipeline) record(files *[]FileResult, f FileResult) {
	*files = append(*files, f)
	if f.Err != nil {
		p.logger.Warn("File not processed", "path", f.Path, "status", f.Status.String(), "error", f.Err)
	} else {
		p.logger.Debug("File processed", "path", f.Path, "status", f.Status.String())
	}
	p.reporter.Report(f.Path, f.Status, f.Err)
}
