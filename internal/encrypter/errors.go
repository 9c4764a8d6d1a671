package encrypter

import "errors"

// Cipher configuration errors
var (
	// ErrUnsupportedCipher is returned for cipher names outside the registry
	ErrUnsupportedCipher = errors.New("unsupported cipher")

	// ErrInvalidKeyLength is returned when the key size does not match the cipher
	ErrInvalidKeyLength = errors.New("invalid key length for cipher")

	// ErrInvalidKey is returned when a base64: key cannot be decoded
	ErrInvalidKey = errors.New("invalid key")
)

// Payload and authentication errors
var (
	// ErrInvalidPayload is returned when a payload is not well-formed
	ErrInvalidPayload = errors.New("the payload is invalid")

	// ErrInvalidMAC is returned when the MAC or tag does not verify
	ErrInvalidMAC = errors.New("the MAC is invalid")

	// ErrDecryptFailed is returned when the ciphertext cannot be decrypted or unpadded
	ErrDecryptFailed = errors.New("could not decrypt the data")
)

// IsConfigError reports whether err stems from a bad cipher name or key
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnsupportedCipher) || errors.Is(err, ErrInvalidKeyLength) || errors.Is(err, ErrInvalidKey)
}

// IsAuthError reports whether err stems from a payload that failed to verify or decode
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidPayload) || errors.Is(err, ErrInvalidMAC) || errors.Is(err, ErrDecryptFailed)
}
