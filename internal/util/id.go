package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random record identity, optionally namespaced by a short
// prefix ("acc", "wrk", "chp", "cat", "tok").
func NewID(prefix string) string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
