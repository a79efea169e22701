// Package checksum computes the content digests used for optimistic
// concurrency and index reconciliation.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// String is Sum for text held in memory, such as a session's encoded tree.
func String(s string) string {
	return Sum([]byte(s))
}

// Match reports whether an If-Match value agrees with data. An empty
// value matches anything; surrounding ETag quotes are ignored.
func Match(ifMatch string, data []byte) bool {
	if n := len(ifMatch); n >= 2 && ifMatch[0] == '"' && ifMatch[n-1] == '"' {
		ifMatch = ifMatch[1 : n-1]
	}
	return ifMatch == "" || ifMatch == Sum(data)
}
