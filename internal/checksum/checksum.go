// Package checksum computes the content digests used for change detection
// and optimistic concurrency on notes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the SHA-256 digest of data as a lowercase hex string.
func Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
