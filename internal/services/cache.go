package services

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	CacheKeyProjects         = "projects:all"
	CacheKeyFeaturedProjects = "projects:featured"
	CacheKeyExperiences      = "experiences:all"
)

// ListCache keeps public list responses in memory. Any content mutation flushes it.
type ListCache struct {
	c *cache.Cache
}

func NewListCache(ttl time.Duration) *ListCache {
	if ttl <= 0 {
		return &ListCache{}
	}
	return &ListCache{c: cache.New(ttl, 2*ttl)}
}

func (l *ListCache) Invalidate() {
	if l == nil || l.c == nil {
		return
	}
	l.c.Flush()
}

// Cached returns the value stored under key or loads and stores it.
func Cached[T any](l *ListCache, key string, load func() (T, error)) (T, error) {
	if l == nil || l.c == nil {
		return load()
	}
	if data, found := l.c.Get(key); found {
		if value, ok := data.(T); ok {
			return value, nil
		}
	}
	value, err := load()
	if err != nil {
		return value, err
	}
	l.c.Set(key, value, cache.DefaultExpiration)
	return value, nil
}
