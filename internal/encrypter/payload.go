package encrypter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Payload is the self-contained result of one encryption. Every field is
// text: IV, Value and Tag are base64, MAC is lowercase hex. MAC is set for
// CBC ciphers and Tag for AEAD ciphers; the other one is empty.
type Payload struct {
	IV    string `json:"iv"`
	Value string `json:"value"`
	MAC   string `json:"mac"`
	Tag   string `json:"tag"`
}

// rawPayload distinguishes missing fields from empty ones while decoding
type rawPayload struct {
	IV    *string `json:"iv"`
	Value *string `json:"value"`
	MAC   *string `json:"mac"`
	Tag   *string `json:"tag"`
}

// Encode returns base64(JSON(payload)), the form stored in encoded files
func (p *Payload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodePayload parses the output of Payload.Encode. The iv, value and mac
// fields are required; tag is optional.
func DecodePayload(encoded string) (*Payload, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if raw.IV == nil || raw.Value == nil || raw.MAC == nil {
		return nil, fmt.Errorf("%w: missing iv, value or mac", ErrInvalidPayload)
	}

	p := &Payload{IV: *raw.IV, Value: *raw.Value, MAC: *raw.MAC}
	if raw.Tag != nil {
		p.Tag = *raw.Tag
	}
	return p, nil
}
