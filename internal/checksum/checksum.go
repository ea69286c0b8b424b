// Package checksum provides content digests used to detect rules-file changes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// File returns the digest of the file at path, or "" if it cannot be read.
// A missing rules file hashes the same as an unreadable one on purpose:
// both mean "nothing loaded".
func File(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return Sum(data)
}
