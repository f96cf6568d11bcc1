package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type HashAlgo string

const (
	HashAlgoSHA256 = "sha256"
)

// HashBytes returns the hash of bytes as a hex string using the specified algorithm.
// Supported algorithm: "sha256".
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA256:
		return hashBytesSha256(data), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

func hashBytesSha256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
