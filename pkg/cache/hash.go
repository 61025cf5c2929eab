package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the SHA-256 of data as a 64-character hex string. Score
// bytes are hashed with this to key their layouts, so the function must
// stay stable across releases: changing it silently invalidates every
// cached layout.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a class-prefixed key ("layout:<hex>", "score:<hex>") from
// an arbitrary tuple of components. The components are serialized before
// hashing so structured values like LayoutKeyOpts contribute field by
// field.
func hashKey(class string, parts ...any) string {
	blob, _ := json.Marshal(parts)
	return class + ":" + Hash(blob)
}
