package providers

import (
	"errors"
	"github.com/coocood/freecache"
	"nonomi/internal/structures"
	"unsafe"
)

type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type CacheProvider struct {
	cache  *freecache.Cache
	ttl    int
	logger Logger
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Cache disabled")
		return &noopCache{}
	}

	sizeBytes := conf.Cache.Size * 1024 * 1024
	ttl := max(int(conf.Audio.CacheTTL.Seconds()), 1)

	logger.Infof(TypeApp, "Cache initialized: %dMB, TTL=%ds, max entry %dKB", conf.Cache.Size, ttl, sizeBytes/1024/1024)

	return &CacheProvider{
		cache:  freecache.NewCache(sizeBytes),
		ttl:    ttl,
		logger: logger,
	}
}

// unsafeStringToBytes converts string to []byte without allocation.
// freecache copies keys internally, so the result is never mutated.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set is best effort. freecache refuses entries over 1/1024 of the cache
// size, so a long voice clip may simply not be cached.
func (c *CacheProvider) Set(key string, value []byte) {
	err := c.cache.Set(unsafeStringToBytes(key), value, c.ttl)
	switch {
	case err == nil:
	case errors.Is(err, freecache.ErrLargeEntry):
		c.logger.Debugf(TypeApp, "Not caching %s: %d bytes exceeds the per-entry limit", key, len(value))
	default:
		c.logger.Warnf(TypeApp, "Cache set %s failed: %s", key, err)
	}
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
