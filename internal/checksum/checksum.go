// Package checksum fingerprints raw post files for ETags and index freshness.
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

// ETag wraps a digest returned by Sum as a strong HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// MatchesNoneMatch reports whether an If-None-Match header value matches
// etag. Weak comparison is used, as for GET requests.
func MatchesNoneMatch(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == want {
			return true
		}
	}
	return false
}
