package respcache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// Key derives a stable cache key from a request's identity. The key is a
// content address over the endpoint and its sorted parameters, so identical
// requests share entries across sessions and key validity never depends on
// the wall clock.
func Key(endpoint string, params url.Values) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write([]byte(params.Encode())) // Encode sorts by key
	return hex.EncodeToString(h.Sum(nil))
}
