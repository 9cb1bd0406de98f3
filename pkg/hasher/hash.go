package hasher

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash возвращает SHA-256 хэш входной строки в виде hex.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
