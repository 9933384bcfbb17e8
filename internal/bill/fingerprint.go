package bill

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the content hash used to detect duplicate uploads.
// Identical bytes always produce the identical fingerprint, regardless of
// filename or upload session.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
