// Package fingerprint produces stable digests of request payloads for
// cache and audit-log keys. Two structurally-equal inputs always produce
// the same digest regardless of map key order.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash serializes v deterministically and returns the SHA-256 hex digest.
// encoding/json emits map keys in sorted order, so any JSON-shaped value
// (maps, slices, scalars, structs) hashes identically for key-reordered
// equivalents. Non-serializable input returns an error.
func Hash(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Request returns the digest used to key cached agent responses: the
// endpoint name, the raw input object, and the owning user.
func Request(endpoint string, input any, userID string) (string, error) {
	return Hash(map[string]any{
		"endpoint": endpoint,
		"input":    input,
		"userId":   userID,
	})
}
