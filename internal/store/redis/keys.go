package redis

import "strings"

const (
	// KeyPrefixCache is the prefix for cached response entries
	KeyPrefixCache = "curio:cache:"
	// KeyPrefixTag is the prefix for the set of entry keys carrying a tag
	KeyPrefixTag = "curio:tag:"
)

// CacheKey returns the Redis key for a cached entry
func CacheKey(key string) string {
	return KeyPrefixCache + key
}

// TagKey returns the Redis key of a tag's member set
func TagKey(tag string) string {
	return KeyPrefixTag + strings.ToLower(strings.TrimSpace(tag))
}
