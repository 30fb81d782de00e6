package data

import (
	"sync"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// MemoryCache implements Cache with in-memory storage. Values are copied
// on both store and load so callers cannot mutate cached series.
type MemoryCache struct {
	cache map[string][]types.Bar
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{cache: make(map[string][]types.Bar)}
}

// Get retrieves bars from the cache if present.
func (c *MemoryCache) Get(key string) ([]types.Bar, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	bars, exists := c.cache[key]
	if !exists {
		return nil, false
	}
	result := make([]types.Bar, len(bars))
	copy(result, bars)
	return result, true
}

// Set stores bars in the cache.
func (c *MemoryCache) Set(key string, bars []types.Bar) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cached := make([]types.Bar, len(bars))
	copy(cached, bars)
	c.cache[key] = cached
}

// Clear removes all cached entries.
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cache = make(map[string][]types.Bar)
}

// Size returns the number of cached entries.
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

// CachedProvider wraps a Provider with a MemoryCache so repeated
// backtests over the same file skip the parse.
type CachedProvider struct {
	inner Provider
	cache *MemoryCache
}

// NewCachedProvider wraps the given provider with caching.
func NewCachedProvider(inner Provider) *CachedProvider {
	return &CachedProvider{inner: inner, cache: NewMemoryCache()}
}

// GetName returns the name of the underlying provider.
func (p *CachedProvider) GetName() string {
	return p.inner.GetName() + " (cached)"
}

// LoadBars loads bars through the cache.
func (p *CachedProvider) LoadBars(source, symbol string) ([]types.Bar, error) {
	key := symbol + "|" + source
	if bars, ok := p.cache.Get(key); ok {
		return bars, nil
	}
	bars, err := p.inner.LoadBars(source, symbol)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, bars)
	return bars, nil
}

// ValidateBars delegates to the underlying provider.
func (p *CachedProvider) ValidateBars(bars []types.Bar) error {
	return p.inner.ValidateBars(bars)
}
