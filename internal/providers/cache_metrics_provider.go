package providers

import (
	"nonomi/internal/structures"
	"strings"
)

const otherCacheNamespace = "other"

// MetricsCacheProvider counts lookups per key namespace. Keys are
// namespaced by the prefix before the first colon, e.g. "audio:<url>"
// or "status:<version>:<polling>".
type MetricsCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *MetricsCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	ns := cacheNamespace(key)
	if ok {
		c.metrics.IncCacheHits(ns)
	} else {
		c.metrics.IncCacheMisses(ns)
	}
	return val, ok
}

func (c *MetricsCacheProvider) Set(key string, value []byte) {
	c.inner.Set(key, value)
}

func cacheNamespace(key string) string {
	ns, _, found := strings.Cut(key, ":")
	if !found || ns == "" {
		return otherCacheNamespace
	}
	return ns
}

// NewInstrumentedCacheProvider skips the wrapper when the cache is off so
// disabled lookups do not show up as misses.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if _, disabled := inner.(*noopCache); disabled {
		return inner
	}
	return &MetricsCacheProvider{
		inner:   inner,
		metrics: metrics,
	}
}
