package chatid

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		grokID string
	}{
		{"numeric id", "1894561234567890123"},
		{"millisecond fallback", "1739970000000"},
		{"empty id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := Encode(tt.grokID)

			assert.True(t, strings.HasPrefix(id, Prefix))
			assert.Len(t, id, len(Prefix)+idChars)
			assert.NotContains(t, id[len(Prefix):], "+")
			assert.NotContains(t, id[len(Prefix):], "/")
			assert.NotContains(t, id[len(Prefix):], "=")
			assert.Equal(t, id, Encode(tt.grokID), "encoding must be deterministic")
		})
	}
}

func TestEncodeDistinctInputs(t *testing.T) {
	seen := make(map[string]string, 1000)
	for i := 0; i < 1000; i++ {
		grokID := fmt.Sprintf("%d", 1739970000000+i)
		id := Encode(grokID)
		if prev, dup := seen[id]; dup {
			t.Fatalf("collision between %s and %s", prev, grokID)
		}
		seen[id] = grokID
	}
}

func TestDecode(t *testing.T) {
	t.Run("returns leading digest bytes for a clean id", func(t *testing.T) {
		// the first eleven characters carry the first eight bytes; they must
		// avoid the substituted letters for the reversal to be lossless
		for i := 0; i < 10000; i++ {
			grokID := fmt.Sprintf("%d", i)
			id := Encode(grokID)
			if strings.ContainsAny(id[len(Prefix):len(Prefix)+11], "xy") || strings.Contains(id, "z") {
				continue
			}

			sum := sha256.Sum256([]byte(grokID))
			got, ok := Decode(id)
			require.True(t, ok)
			assert.Equal(t, binary.BigEndian.Uint64(sum[:8]), got)
			return
		}
		t.Fatal("no suitable id found")
	})

	t.Run("fails closed on malformed input", func(t *testing.T) {
		for _, in := range []string{"", "chatcmpl-", "not-an-id", "chatcmpl-!!!!", "chatcmpl-abc"} {
			_, ok := Decode(in)
			assert.False(t, ok, "input %q", in)
		}
	})
}
