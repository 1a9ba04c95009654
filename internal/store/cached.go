package store

import (
	"bytes"
	"context"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheStats counts cache lookups.
type CacheStats struct {
	Hits   int64
	Misses int64
}

// CachedStore wraps a backing Store with an LRU read cache. Writes and
// deletes invalidate the cached entry; the next Get reloads it.
type CachedStore struct {
	backing Store
	cache   *lru.Cache[string, *Document]
	logger  *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedStore creates a CachedStore keeping at most size documents.
func NewCachedStore(backing Store, size int, logger *slog.Logger) (*CachedStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cs := &CachedStore{backing: backing, logger: logger}
	cache, err := lru.NewWithEvict[string, *Document](size, cs.handleEviction)
	if err != nil {
		return nil, err
	}
	cs.cache = cache
	return cs, nil
}

func (cs *CachedStore) handleEviction(name string, _ *Document) {
	cs.logger.Debug("evicted cached document", "name", name)
}

func (cs *CachedStore) Put(ctx context.Context, name string, data []byte) error {
	cs.cache.Remove(name)
	return cs.backing.Put(ctx, name, data)
}

func (cs *CachedStore) Get(ctx context.Context, name string) (*Document, error) {
	if doc, ok := cs.cache.Get(name); ok {
		cs.hits.Add(1)
		return copyDocument(doc), nil
	}
	cs.misses.Add(1)

	doc, err := cs.backing.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	cs.cache.Add(name, doc)
	return copyDocument(doc), nil
}

func (cs *CachedStore) List(ctx context.Context) ([]DocumentInfo, error) {
	return cs.backing.List(ctx)
}

func (cs *CachedStore) Delete(ctx context.Context, name string) error {
	cs.cache.Remove(name)
	return cs.backing.Delete(ctx, name)
}

func (cs *CachedStore) Close() error {
	cs.cache.Purge()
	return cs.backing.Close()
}

// Len returns the number of cached documents.
func (cs *CachedStore) Len() int {
	return cs.cache.Len()
}

// Stats returns the cache hit and miss counts.
func (cs *CachedStore) Stats() CacheStats {
	return CacheStats{Hits: cs.hits.Load(), Misses: cs.misses.Load()}
}

func copyDocument(doc *Document) *Document {
	out := *doc
	out.Data = bytes.Clone(doc.Data)
	return &out
}
