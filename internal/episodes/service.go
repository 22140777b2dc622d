package episodes

import (
	"context"

	"diggdaily/internal/digg"
	"diggdaily/internal/domain"
)

// Source yields the raw upstream episode collection.
type Source interface {
	Episodes(ctx context.Context) ([]digg.RawEpisode, error)
}

// Cache holds the single most recent resolved episode. Put stamps the
// resolution time and returns the stamped record even when persisting it
// fails; storage trouble never surfaces through this interface.
type Cache interface {
	Get(ctx context.Context) (domain.Episode, bool)
	Put(ctx context.Context, ep domain.Episode) domain.Episode
	Invalidate(ctx context.Context)
}

// Service resolves the current canonical episode, consulting the cache before
// the network.
type Service struct {
	source Source
	cache  Cache
	opts   Options
}

func NewService(source Source, cache Cache, opts Options) *Service {
	return &Service{source: source, cache: cache, opts: opts}
}

// Resolve returns the current episode record. With force set the cached entry
// is dropped before consulting the API; otherwise a fresh cached record is
// returned without any network traffic. Upstream and selection failures are
// returned unchanged, with no retries and no stale fallback.
func (s *Service) Resolve(ctx context.Context, force bool) (domain.Episode, error) {
	if force {
		s.cache.Invalidate(ctx)
	} else if ep, ok := s.cache.Get(ctx); ok {
		return ep, nil
	}

	raws, err := s.source.Episodes(ctx)
	if err != nil {
		return domain.Episode{}, err
	}
	ep, err := Latest(raws, s.opts)
	if err != nil {
		return domain.Episode{}, err
	}
	return s.cache.Put(ctx, ep), nil
}
