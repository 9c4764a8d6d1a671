// Package encrypter wraps the supported symmetric ciphers behind a single
// encrypt/decrypt API producing self-contained, authenticated payloads.
//
// CBC ciphers authenticate with HMAC-SHA256 over the base64 IV followed by
// the base64 ciphertext; AEAD ciphers carry their tag in the payload. The
// payload layout is compatible with the Laravel encrypter.
package encrypter

import (
	"bytes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// Encrypter encrypts and decrypts with one key and cipher
type Encrypter struct {
	key  []byte
	spec Spec
	rand io.Reader
}

// Option configures an Encrypter
type Option func(*Encrypter)

// WithRand overrides the source of IVs
func WithRand(r io.Reader) Option {
	return func(e *Encrypter) {
		e.rand = r
	}
}

// New validates the cipher name and key length and returns an Encrypter
func New(key []byte, cipherName string, opts ...Option) (*Encrypter, error) {
	spec, err := Lookup(cipherName)
	if err != nil {
		return nil, err
	}
	if len(key) != spec.KeySize {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidKeyLength, spec.Name, spec.KeySize, len(key))
	}

	e := &Encrypter{
		key:  bytes.Clone(key),
		spec: spec,
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Key returns a copy of the key
func (e *Encrypter) Key() []byte {
	return bytes.Clone(e.key)
}

// Cipher returns the canonical cipher name
func (e *Encrypter) Cipher() string {
	return e.spec.Name
}

// Encrypt encrypts plaintext under a fresh random IV
func (e *Encrypter) Encrypt(plaintext []byte) (*Payload, error) {
	iv := make([]byte, e.spec.IVSize)
	if _, err := io.ReadFull(e.rand, iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	switch e.spec.Mode {
	case ModeAEAD:
		return e.encryptAEAD(plaintext, iv)
	default:
		return e.encryptCBC(plaintext, iv)
	}
}

// EncryptString encrypts value and returns the encoded payload
func (e *Encrypter) EncryptString(value string) (string, error) {
	payload, err := e.Encrypt([]byte(value))
	if err != nil {
		return "", err
	}
	return payload.Encode()
}

// Decrypt verifies the payload and returns the plaintext
func (e *Encrypter) Decrypt(p *Payload) ([]byte, error) {
	if p == nil {
		return nil, ErrInvalidPayload
	}

	iv, err := base64.StdEncoding.DecodeString(p.IV)
	if err != nil || len(iv) != e.spec.IVSize {
		return nil, fmt.Errorf("%w: bad iv", ErrInvalidPayload)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(p.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: bad value", ErrInvalidPayload)
	}

	switch e.spec.Mode {
	case ModeAEAD:
		return e.decryptAEAD(p, ciphertext, iv)
	default:
		return e.decryptCBC(p, ciphertext, iv)
	}
}

// DecryptString decodes and decrypts the output of EncryptString
func (e *Encrypter) DecryptString(encoded string) (string, error) {
	payload, err := DecodePayload(encoded)
	if err != nil {
		return "", err
	}
	plaintext, err := e.Decrypt(payload)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (e *Encrypter) encryptCBC(plaintext, iv []byte) (*Payload, error) {
	block, err := e.spec.newBlock(e.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	p := &Payload{
		IV:    base64.StdEncoding.EncodeToString(iv),
		Value: base64.StdEncoding.EncodeToString(ciphertext),
	}
	p.MAC = e.hash(p.IV, p.Value)
	return p, nil
}

func (e *Encrypter) decryptCBC(p *Payload, ciphertext, iv []byte) ([]byte, error) {
	if p.Tag != "" {
		return nil, fmt.Errorf("%w: unexpected tag for %s", ErrInvalidPayload, e.spec.Name)
	}
	if !hmac.Equal([]byte(e.hash(p.IV, p.Value)), []byte(p.MAC)) {
		return nil, ErrInvalidMAC
	}

	block, err := e.spec.newBlock(e.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, ErrDecryptFailed
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, block.BlockSize())
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return unpadded, nil
}

func (e *Encrypter) encryptAEAD(plaintext, nonce []byte) (*Payload, error) {
	aead, err := e.spec.newAEAD(e.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - aead.Overhead()

	return &Payload{
		IV:    base64.StdEncoding.EncodeToString(nonce),
		Value: base64.StdEncoding.EncodeToString(sealed[:split]),
		Tag:   base64.StdEncoding.EncodeToString(sealed[split:]),
	}, nil
}

func (e *Encrypter) decryptAEAD(p *Payload, ciphertext, nonce []byte) ([]byte, error) {
	tag, err := base64.StdEncoding.DecodeString(p.Tag)
	if err != nil || len(tag) != tagSize {
		return nil, fmt.Errorf("%w: bad tag", ErrInvalidPayload)
	}

	aead, err := e.spec.newAEAD(e.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}

	plaintext, err := aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrInvalidMAC
	}
	return plaintext, nil
}

// hash computes the hex HMAC-SHA256 of iv||value with the key
func (e *Encrypter) hash(iv, value string) string {
	mac := hmac.New(sha256.New, e.key)
	mac.Write([]byte(iv))
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	length := len(data)
	if length == 0 {
		return nil, ErrDecryptFailed
	}
	padding := int(data[length-1])
	if padding == 0 || padding > blockSize || padding > length {
		return nil, ErrDecryptFailed
	}
	for _, b := range data[length-padding:] {
		if int(b) != padding {
			return nil, ErrDecryptFailed
		}
	}
	return data[:length-padding], nil
}
