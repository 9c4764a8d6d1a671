package decoy

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Fragment splits key into its hex encoding's 2-character pieces, in order
func Fragment(key []byte) []string {
	h := hex.EncodeToString(key)
	frags := make([]string, 0, len(h)/2)
	for i := 0; i < len(h); i += 2 {
		frags = append(frags, h[i:i+2])
	}
	return frags
}

// Reassemble joins fragments in order and hex-decodes the result
func Reassemble(frags []string) ([]byte, error) {
	key, err := hex.DecodeString(strings.Join(frags, ""))
	if err != nil {
		return nil, fmt.Errorf("invalid key fragments: %w", err)
	}
	return key, nil
}

// arrayLiteral renders fragments as ["ab","cd",...]
func arrayLiteral(frags []string) string {
	quoted := make([]string, len(frags))
	for i, f := range frags {
		quoted[i] = `"` + f + `"`
	}
	return "[" + strings.Join(quoted, ",") + "]"
}
