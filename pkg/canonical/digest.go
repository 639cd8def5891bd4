package canonical

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the lowercase hex SHA-256 of data: 64 characters, always.
// Package checksums and sizes are computed over the exact bytes Marshal
// produced, so callers hash the output, not the input value.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
