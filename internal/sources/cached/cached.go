// Package cached decorates a DocumentSource with an LRU of fetched bodies.
package cached

import (
	"context"
	"time"

	"patrimonio/internal/cache"
	"patrimonio/internal/core"
	"patrimonio/internal/log"
	"patrimonio/internal/sources"
)

type entry struct {
	raw   []byte
	found bool
}

// Source caches FetchDocument results, absent documents included. Errors
// are never cached. ListAvailable always reaches the inner source.
type Source struct {
	inner  sources.DocumentSource
	lru    *cache.LRUCache[entry]
	logger *log.Logger
}

var (
	_ sources.DocumentSource = (*Source)(nil)
	_ sources.Invalidator    = (*Source)(nil)
)

func New(inner sources.DocumentSource, size int, ttl time.Duration, logger *log.Logger) *Source {
	return &Source{
		inner:  inner,
		lru:    cache.NewLRUCache[entry](size, ttl),
		logger: logger.WithComponent(log.ComponentCache),
	}
}

// Cleaner exposes the underlying cache for registration with a
// cache.Manager.
func (s *Source) Cleaner() cache.Cleaner {
	return s.lru
}

func (s *Source) FetchDocument(ctx context.Context, name string) ([]byte, bool, error) {
	if e, ok := s.lru.Get(name); ok {
		return e.raw, e.found, nil
	}
	raw, found, err := s.inner.FetchDocument(ctx, name)
	if err != nil {
		return nil, false, err
	}
	s.lru.Set(name, entry{raw: raw, found: found})
	return raw, found, nil
}

func (s *Source) ListAvailable(ctx context.Context) ([]core.Entry, error) {
	return s.inner.ListAvailable(ctx)
}

// Invalidate drops name from the cache.
func (s *Source) Invalidate(name string) {
	s.lru.Delete(name)
	s.logger.Debug("Cache entry evicted", log.FieldDocument, name, log.FieldOperation, log.OpEvict)
}

func (s *Source) Stats() cache.Stats {
	return s.lru.Stats()
}
