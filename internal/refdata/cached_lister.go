// Package refdata serves the reference lists a document screen picks from
// (products, salespeople, locations, ...), cached per list.
package refdata

import (
	"context"
	"sync"
	"time"

	"github.com/diewo77/go-erpdocs/internal/rpc"
)

// Lister fetches one reference list.
type Lister interface {
	List(ctx context.Context, key string) ([]rpc.RefItem, error)
}

// CachedLister wraps a Lister with TTL-based caching, so reopening a
// document does not refetch every list.
type CachedLister struct {
	inner Lister
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	items     []rpc.RefItem
	expiresAt time.Time
}

func NewCachedLister(inner Lister, ttl time.Duration) *CachedLister {
	return &CachedLister{
		inner: inner,
		cache: make(map[string]*cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// List returns the list for key, using the cache while it is fresh.
// Failed fetches are not cached.
func (l *CachedLister) List(ctx context.Context, key string) ([]rpc.RefItem, error) {
	l.mu.RLock()
	entry, ok := l.cache[key]
	l.mu.RUnlock()

	if ok && l.now().Before(entry.expiresAt) {
		return entry.items, nil
	}

	items, err := l.inner.List(ctx, key)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[key] = &cacheEntry{items: items, expiresAt: l.now().Add(l.ttl)}
	l.mu.Unlock()

	return items, nil
}

// Invalidate drops one list, e.g. after a product was edited.
func (l *CachedLister) Invalidate(key string) {
	l.mu.Lock()
	delete(l.cache, key)
	l.mu.Unlock()
}

func (l *CachedLister) InvalidateAll() {
	l.mu.Lock()
	l.cache = make(map[string]*cacheEntry)
	l.mu.Unlock()
}
