package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	GlobalKeyPrefix = "quizard"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// MaterialContentKey builds the cache key for extracted material text.
// URLs are digested so that arbitrarily long or percent-encoded references
// produce a bounded, redis-safe key.
func MaterialContentKey(fileURL string) string {
	sum := sha256.Sum256([]byte(fileURL))
	return GenerateCacheKey("content", "material", hex.EncodeToString(sum[:16]))
}
