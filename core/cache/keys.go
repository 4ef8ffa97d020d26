package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Key composes a namespaced cache key. An empty prefix returns base
// unchanged.
func Key(prefix, base string) string {
	if prefix == "" {
		return base
	}
	return prefix + ":" + base
}

// Hash returns the fixed-width hex digest used for hash-derived keys:
// 8 bytes of BLAKE2b, 16 characters encoded.
func Hash(data []byte) string {
	h, _ := blake2b.New(8, nil)
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashKey derives a content-addressed key from arbitrary argument data.
// Serialization goes through encoding/json, which emits map keys in sorted
// order, so identical values hash identically regardless of iteration order.
// Values that cannot be serialized degrade to their raw fmt form.
func HashKey(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b = fmt.Appendf(nil, "%v", v)
	}
	return Hash(b)
}
