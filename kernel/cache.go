package kernel

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// CacheEntry is a memoized step result (C3), keyed by "{stepName}:{hex
// sha256 of canonical input}". A zero ExpiresAt means the entry never
// expires.
type CacheEntry struct {
	Key        string
	ResultJSON []byte
	ExpiresAt  time.Time
}

// cacheBackend abstracts the bounded-vs-unbounded storage choice so Cache
// itself only has to own the single-flight and TTL policy.
type cacheBackend interface {
	get(key string) (CacheEntry, bool)
	put(key string, entry CacheEntry)
}

// unboundedBackend is a plain concurrent map, for workflows with small or
// naturally-bounded step vocabularies.
type unboundedBackend struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

func newUnboundedBackend() *unboundedBackend {
	return &unboundedBackend{entries: make(map[string]CacheEntry)}
}

func (b *unboundedBackend) get(key string) (CacheEntry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[key]
	return e, ok
}

func (b *unboundedBackend) put(key string, entry CacheEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = entry
}

// boundedBackend wraps hashicorp/golang-lru/v2 for a capacity-limited cache
// (default 10,000 entries per spec.md §4.3).
type boundedBackend struct {
	cache *lru.Cache[string, CacheEntry]
}

func newBoundedBackend(capacity int) (*boundedBackend, error) {
	c, err := lru.New[string, CacheEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &boundedBackend{cache: c}, nil
}

func (b *boundedBackend) get(key string) (CacheEntry, bool) {
	return b.cache.Get(key)
}

func (b *boundedBackend) put(key string, entry CacheEntry) {
	b.cache.Add(key, entry)
}

// Cache implements the Step Execution Cache (C3): memoized step outputs
// keyed by (stepName, inputHash), optional TTL, and an at-most-one-producer
// guarantee across concurrent callers for the same key via
// golang.org/x/sync/singleflight, the same coalescing primitive the
// retrieved corpus uses for concurrent request deduplication.
type Cache struct {
	backend cacheBackend
	group   singleflight.Group
}

// DefaultCacheCapacity is the bounded-LRU default capacity per spec.md §6.
const DefaultCacheCapacity = 10000

// NewUnboundedCache constructs a Cache backed by an unbounded concurrent
// map.
func NewUnboundedCache() *Cache {
	return &Cache{backend: newUnboundedBackend()}
}

// NewBoundedCache constructs a Cache backed by a capacity-limited LRU.
func NewBoundedCache(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	b, err := newBoundedBackend(capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{backend: b}, nil
}

// ComputeInputHash returns hex(sha256(canonicalJSON(input))), matching
// spec.md §4.3's canonicalization contract (sorted map keys, fixed number
// formats, UTF-8).
func ComputeInputHash(input any) (string, error) {
	canon, err := canonicalizeJSON(input)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// CacheKey builds the wire-format cache key "{stepName}:{inputHash}".
func CacheKey(stepName, inputHash string) string {
	return stepName + ":" + inputHash
}

// TryGet returns the memoized result for (stepName, inputHash) if present
// and not expired. A read past ExpiresAt is treated as a miss (lazy
// eviction); the stale entry is left in place for Put to overwrite.
func (c *Cache) TryGet(stepName, inputHash string) (CacheEntry, bool) {
	key := CacheKey(stepName, inputHash)
	entry, ok := c.backend.get(key)
	if !ok {
		return CacheEntry{}, false
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		return CacheEntry{}, false
	}
	return entry, true
}

// Put stores result for (stepName, inputHash), overwriting any prior entry.
// A zero ttl means the entry never expires.
func (c *Cache) Put(stepName, inputHash string, result []byte, ttl time.Duration) {
	key := CacheKey(stepName, inputHash)
	entry := CacheEntry{Key: key, ResultJSON: result}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	c.backend.put(key, entry)
}

// GetOrCompute implements the single-flight memoization contract: N
// concurrent callers for the same (stepName, inputHash) invoke produce
// exactly once; all callers observe the same result (or the same error).
// A cache hit short-circuits produce entirely.
func (c *Cache) GetOrCompute(stepName, inputHash string, ttl time.Duration, produce func() ([]byte, error)) ([]byte, bool, error) {
	if entry, ok := c.TryGet(stepName, inputHash); ok {
		return entry.ResultJSON, true, nil
	}

	key := CacheKey(stepName, inputHash)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if entry, ok := c.TryGet(stepName, inputHash); ok {
			return entry.ResultJSON, nil
		}
		result, err := produce()
		if err != nil {
			return nil, err
		}
		c.Put(stepName, inputHash, result, ttl)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.([]byte), false, nil
}
