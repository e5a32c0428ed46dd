package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a report cache key from the raw image bytes, so the
// same content fetched from different paths or URLs hits the same
// entry. The version segment invalidates old entries when the report
// format changes.
func CacheKey(imageBytes []byte) string {
	hash := sha256.Sum256(imageBytes)
	return "veriscope:v1:" + hex.EncodeToString(hash[:])
}
