package stem

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of distinct words kept by NewCached when no
// positive size is given.
const DefaultCacheSize = 10000

// Cached wraps a Stemmer with an LRU cache. Label words repeat heavily across a
// dump, so most lookups during a build are hits.
type Cached struct {
	inner Stemmer
	cache *lru.Cache[string, string]
}

// Verify interface implementation at compile time
var _ Stemmer = (*Cached)(nil)

// NewCached returns inner wrapped with a cache of size entries.
func NewCached(inner Stemmer, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, string](size)
	return &Cached{
		inner: inner,
		cache: cache,
	}
}

// Stem returns the cached stem of word, computing it on a miss.
func (c *Cached) Stem(word string) string {
	if s, ok := c.cache.Get(word); ok {
		return s
	}
	s := c.inner.Stem(word)
	c.cache.Add(word, s)
	return s
}

// Len returns the number of cached words.
func (c *Cached) Len() int {
	return c.cache.Len()
}

// New returns the Porter stemmer, cached when cacheSize is positive.
func New(cacheSize int) Stemmer {
	if cacheSize <= 0 {
		return NewPorter()
	}
	return NewCached(NewPorter(), cacheSize)
}
