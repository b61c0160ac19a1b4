package datalayer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultAssetCacheSize = 32
	defaultAssetCacheTTL  = 30 * time.Minute
)

// DigestOf returns the content address used for an asset blob.
func DigestOf(data []byte) AssetRef {
	sum := sha256.Sum256(data)
	return AssetRef{Digest: hex.EncodeToString(sum[:])}
}

// AssetCache keeps recently resolved assets in memory. Assets are content
// addressed so a cached blob never goes stale; the TTL only bounds memory.
type AssetCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewAssetCache creates a cache. Non-positive arguments select defaults.
func NewAssetCache(size int, ttl time.Duration) *AssetCache {
	if size <= 0 {
		size = defaultAssetCacheSize
	}
	if ttl <= 0 {
		ttl = defaultAssetCacheTTL
	}
	return &AssetCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns a copy of the cached blob.
func (c *AssetCache) Get(ref AssetRef) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, ok := c.lru.Get(ref.Digest)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Add stores a copy of data under ref.
func (c *AssetCache) Add(ref AssetRef, data []byte) {
	if c == nil || !ref.Valid() {
		return
	}
	c.lru.Add(ref.Digest, append([]byte(nil), data...))
}

// Len returns the number of cached blobs.
func (c *AssetCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// fetchBounded resolves ref through the cache, falling back to fetch with a
// deadline of timeout. Any failure is reported as ErrAssetUnavailable.
func fetchBounded(ctx context.Context, timeout time.Duration, cache *AssetCache, ref AssetRef, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: empty asset reference", ErrAssetUnavailable)
	}
	if data, ok := cache.Get(ref); ok {
		return data, nil
	}
	if timeout <= 0 {
		timeout = DefaultAssetTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetUnavailable, shortDigest(ref), err)
	}
	if got := DigestOf(data); got.Digest != ref.Digest {
		return nil, fmt.Errorf("%w: %s: digest mismatch", ErrAssetUnavailable, shortDigest(ref))
	}
	cache.Add(ref, data)
	return data, nil
}

func shortDigest(ref AssetRef) string {
	if len(ref.Digest) > 12 {
		return ref.Digest[:12]
	}
	return ref.Digest
}
