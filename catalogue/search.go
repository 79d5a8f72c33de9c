package catalogue

import (
	"context"
	"encoding/json"

	"github.com/jonanatree/cardbinder/internal/searchcache"
)

// Searcher is the upstream card-data provider.
type Searcher interface {
	SearchCards(ctx context.Context, query string) (json.RawMessage, error)
}

// SearchProxy serves free-text card searches, caching upstream responses
// keyed by the exact query string.
type SearchProxy struct {
	upstream Searcher
	cache    *searchcache.Cache
}

func NewSearchProxy(upstream Searcher, cache *searchcache.Cache) *SearchProxy {
	return &SearchProxy{upstream: upstream, cache: cache}
}

// Search returns the upstream payload for query, serving from cache when a
// fresh entry exists. Upstream failures are not cached.
func (s *SearchProxy) Search(ctx context.Context, query string) (json.RawMessage, error) {
	if data, ok := s.cache.Get(query); ok {
		return data, nil
	}

	data, err := s.upstream.SearchCards(ctx, query)
	if err != nil {
		return nil, err
	}

	s.cache.Set(query, data)
	return data, nil
}
