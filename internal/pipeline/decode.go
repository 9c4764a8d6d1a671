package pipeline

import (
	"context"

	"github.com/isseis/go-code-encrypter/internal/classifier"
	"github.com/isseis/go-code-encrypter/internal/encrypter"
)

// DecodeRequest describes one decode run
type DecodeRequest struct {
	Patterns []string
	// Key is the key printed by the encode run
	Key    string
	Cipher string
}

// DecodeResult lists the per-file outcomes of a decode run
type DecodeResult struct {
	Cipher string
	Files  []FileResult
}

// Decoded returns the number of files restored
func (r *DecodeResult) Decoded() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == StatusDecrypted {
			n++
		}
	}
	return n
}

// Decode restores every encoded file under the request's patterns.
//
// Files that are not encoded are dropped silently. The first payload that
// fails to decrypt aborts the run, since every later file would fail the same
// way; files already restored stay restored.
func (p *Pipeline) Decode(ctx context.Context, req DecodeRequest) (*DecodeResult, error) {
	eligible, skipped, failed, err := p.collect(ctx, req.Patterns, classifier.EncodedEligible)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Ignoring files that are not encoded", "count", len(skipped))

	result := &DecodeResult{}
	for _, f := range failed {
		f.Status = StatusNotDecrypted
		p.record(&result.Files, f)
	}

	if len(eligible) == 0 {
		return result, newError(ErrNoFiles, "", nil)
	}

	key, err := encrypter.ParseKey(req.Key)
	if err != nil {
		return result, newError(ErrCipher, "", err)
	}
	cipherName := req.Cipher
	if cipherName == "" {
		cipherName = encrypter.DefaultCipher
	}
	enc, err := encrypter.New(key, cipherName)
	if err != nil {
		return result, newError(ErrCipher, "", err)
	}
	result.Cipher = enc.Cipher()

	p.logger.Info("Decoding files", "files", len(eligible), "cipher", result.Cipher)

	for _, c := range eligible {
		if err := ctx.Err(); err != nil {
			return result, newError(ErrCanceled, "", err)
		}

		parsed, err := p.format.Parse(string(c.content))
		if err != nil {
			p.record(&result.Files, FileResult{Path: c.path, Status: StatusNotDecrypted, Err: newError(ErrRead, c.path, err)})
			continue
		}

		plaintext, err := enc.DecryptString(parsed.Payload)
		if err != nil {
			e := newError(classify(err), c.path, err)
			p.record(&result.Files, FileResult{Path: c.path, Status: StatusNotDecrypted, Err: e})
			return result, e
		}

		if err := p.writeFile(c.path, []byte(p.format.OpeningTag+plaintext)); err != nil {
			p.record(&result.Files, FileResult{Path: c.path, Status: StatusNotDecrypted, Err: newError(ErrWrite, c.path, err)})
			continue
		}
		p.record(&result.Files, FileResult{Path: c.path, Status: StatusDecrypted})
	}

	return result, nil
}
