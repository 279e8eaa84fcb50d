package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores parsed snippet data keyed by content
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyVersion is bumped whenever the cached encoding changes
const keyVersion = "snipcheck:v1:"

// Key derives a cache key from the given parts (content hash, language, ...)
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyVersion + hex.EncodeToString(hash[:])
}
