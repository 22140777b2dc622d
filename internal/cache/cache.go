package cache

import (
	"context"
	"log"
	"time"

	"diggdaily/internal/domain"
)

// DefaultWindow is how long a resolved episode remains valid.
const DefaultWindow = 30 * time.Minute

// Store persists the single resolved record.
type Store interface {
	GetLatestEpisode(ctx context.Context) (domain.Episode, bool, error)
	PutLatestEpisode(ctx context.Context, ep domain.Episode) error
	DeleteLatestEpisode(ctx context.Context) error
}

// Cache is a single-slot TTL cache over a persistent store. Storage failures
// are logged and treated as an absent entry; they never reach callers.
type Cache struct {
	store  Store
	window time.Duration
	now    func() time.Time
}

func New(store Store, window time.Duration) *Cache {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Cache{store: store, window: window, now: time.Now}
}

// Get returns the cached record if it is younger than the window. Staleness
// is judged at read time; an expired entry is left in place until the next
// Put replaces it.
func (c *Cache) Get(ctx context.Context) (domain.Episode, bool) {
	ep, ok, err := c.store.GetLatestEpisode(ctx)
	if err != nil {
		log.Printf("cache: read failed, resolving cold: %v", err)
		return domain.Episode{}, false
	}
	if !ok {
		return domain.Episode{}, false
	}
	if c.now().Sub(ep.ResolvedAt) >= c.window {
		return domain.Episode{}, false
	}
	return ep, true
}

// Put stamps the record with the current time and stores it, replacing any
// previous entry. The stamped record is returned even when the write fails.
func (c *Cache) Put(ctx context.Context, ep domain.Episode) domain.Episode {
	ep.ResolvedAt = c.now()
	if err := c.store.PutLatestEpisode(ctx, ep); err != nil {
		log.Printf("cache: write failed: %v", err)
	}
	return ep
}

// Invalidate drops the entry regardless of age.
func (c *Cache) Invalidate(ctx context.Context) {
	if err := c.store.DeleteLatestEpisode(ctx); err != nil {
		log.Printf("cache: invalidate failed: %v", err)
	}
}
