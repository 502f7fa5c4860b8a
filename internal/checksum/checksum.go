// Package checksum computes content digests used for change detection and
// optimistic concurrency on raw JSON files.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag formats a digest returned by Sum as a strong HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// Matches reports whether an If-Match style value agrees with data.
// An empty value or "*" always matches.
func Matches(ifMatch string, data []byte) bool {
	v := strings.TrimSpace(ifMatch)
	if v == "" || v == "*" {
		return true
	}
	return strings.Trim(v, `"`) == Sum(data)
}
