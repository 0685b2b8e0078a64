package sqlstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-capabilities/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const mappingCacheKeyPrefix = "go-capabilities::mapping::v1"

// CachedMappingStore serves Load from a read-through cache and evicts every
// written dependent after Apply commits. Apply excludes in-flight fetches, so
// a load that read the base store before a commit cannot refill the cache
// after the eviction. Reads may be stale for at most the cache TTL when
// another process writes the same database.
type CachedMappingStore struct {
	mu    sync.RWMutex
	base  core.MappingStore
	cache repositorycache.CacheService
}

func NewCachedMappingStore(base core.MappingStore, cacheService repositorycache.CacheService) (*CachedMappingStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base mapping store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: mapping cache service is required")
	}
	return &CachedMappingStore{base: base, cache: cacheService}, nil
}

// MappingCacheKey returns go-capabilities::mapping::v1::<dependent hex>.
func MappingCacheKey(dependent core.Address) string {
	return mappingCacheKeyPrefix + "::" + dependent.Hex()
}

func (s *CachedMappingStore) Load(ctx context.Context, dependents []core.Address) ([]core.Address, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached mapping store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Address, len(dependents))
	for i, dependent := range dependents {
		provider, err := repositorycache.GetOrFetch(ctx, s.cache, MappingCacheKey(dependent), func(ctx context.Context) (core.Address, error) {
			fetched, fetchErr := s.base.Load(ctx, []core.Address{dependent})
			if fetchErr != nil {
				return core.Address{}, fetchErr
			}
			if len(fetched) != 1 {
				return core.Address{}, fmt.Errorf("sqlstore: base mapping store returned %d providers for 1 dependent", len(fetched))
			}
			return fetched[0], nil
		})
		if err != nil {
			return nil, err
		}
		out[i] = provider
	}
	return out, nil
}

func (s *CachedMappingStore) Apply(ctx context.Context, mutation core.Mutation) (core.AuditEvent, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.AuditEvent{}, fmt.Errorf("sqlstore: cached mapping store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	committed, err := s.base.Apply(ctx, mutation)
	if err != nil {
		return core.AuditEvent{}, err
	}
	evicted := make(map[core.Address]struct{}, len(mutation.Writes))
	for _, write := range mutation.Writes {
		if _, ok := evicted[write.Dependent]; ok {
			continue
		}
		evicted[write.Dependent] = struct{}{}
		// The write is already committed; a failed eviction only leaves the
		// entry stale until its TTL expires.
		_ = s.cache.Delete(ctx, MappingCacheKey(write.Dependent))
	}
	return committed, nil
}

func (s *CachedMappingStore) ListAuditEvents(ctx context.Context, filter core.AuditEventFilter) (core.AuditEventPage, error) {
	if s == nil || s.base == nil {
		return core.AuditEventPage{}, fmt.Errorf("sqlstore: cached mapping store is not configured")
	}
	reader, ok := s.base.(core.AuditEventReader)
	if !ok {
		return core.AuditEventPage{}, core.ErrAuditNotSupported
	}
	return reader.ListAuditEvents(ctx, filter)
}
