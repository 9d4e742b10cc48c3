// Package idgen mints the random identifiers used across the API
// ("scn_…" scenarios, "prd_…" predictions, "alr_…" alerts, "gst_…"
// gesture samples).
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// nothing sensible to do but crash.
		panic("idgen: " + err.Error())
	}
	return b
}

// WithPrefix returns prefix + 24 hex chars of randomness. The prefix makes
// IDs self-describing in logs and API payloads.
func WithPrefix(prefix string) string {
	return prefix + hex.EncodeToString(randomBytes(12))
}

// Hex returns numBytes of randomness hex-encoded; request IDs use this.
func Hex(numBytes int) string {
	return hex.EncodeToString(randomBytes(numBytes))
}
