// Package chatid derives OpenAI-shaped completion ids from Grok identifiers.
//
// Encode is a pure one-way derivation. Decode only reinterprets the leading
// digest bytes as an integer and is meant for debugging; it does not recover
// the original Grok id and callers must not rely on a round trip.
package chatid

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"strings"
)

// Prefix tags every encoded id.
const Prefix = "chatcmpl-"

const (
	digestBytes = 24
	idChars     = 32
)

var (
	toSafe   = strings.NewReplacer("+", "x", "/", "y", "=", "z")
	fromSafe = strings.NewReplacer("x", "+", "y", "/", "z", "=")
)

// Encode returns the client-facing id for a Grok id.
func Encode(grokID string) string {
	sum := sha256.Sum256([]byte(grokID))
	b64 := toSafe.Replace(base64.StdEncoding.EncodeToString(sum[:digestBytes]))
	if len(b64) > idChars {
		b64 = b64[:idChars]
	}
	return Prefix + b64
}

// Decode attempts the inverse substitution and returns the first eight digest
// bytes as an integer. ok is false for any malformed input.
func Decode(clientID string) (value uint64, ok bool) {
	if !strings.HasPrefix(clientID, Prefix) {
		return 0, false
	}
	b64 := strings.TrimRight(fromSafe.Replace(strings.TrimPrefix(clientID, Prefix)), "=")
	if b64 == "" {
		return 0, false
	}

	decoded, err := base64.RawStdEncoding.DecodeString(b64)
	if err != nil || len(decoded) < 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(decoded[:8]), true
}
