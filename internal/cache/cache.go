// Package cache provides the best-effort metadata cache port used by the
// vault service. The cache has no consistency guarantee with the store; the
// vault must explicitly invalidate an owner's entry on every mutation.
package cache

import "time"

// Store is the cache port: get/set/delete by key. Implementations must be
// safe for concurrent use.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
}

type memoryEntry struct {
	value  any
	expiry time.Time
}
