package properties

import (
	"context"
	"encoding/json"
	"time"

	"realestate_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKeyAll = "properties:snapshot:all"

// CachedProvider decorates a SnapshotProvider with a short-TTL redis cache.
// Concurrent fetches for the same key are collapsed through singleflight, so
// a burst of lead writes costs at most one source query per TTL window.
// Cache failures fall through to the source; the cache is never authoritative.
type CachedProvider struct {
	source SnapshotProvider
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	log    *logger.Logger
}

// NewCachedProvider wraps the source provider with a redis cache.
func NewCachedProvider(source SnapshotProvider, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedProvider {
	return &CachedProvider{
		source: source,
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// ActiveProperties returns the cached snapshot, refreshing it from the source
// on a miss.
func (p *CachedProvider) ActiveProperties(ctx context.Context, agentID *uuid.UUID) ([]SnapshotEntry, error) {
	key := cacheKeyAll
	if agentID != nil {
		key = "properties:snapshot:agent:" + agentID.String()
	}

	if cached, err := p.client.Get(ctx, key).Bytes(); err == nil {
		var entries []SnapshotEntry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
		// Corrupt cache entry; drop it and refetch.
		p.client.Del(ctx, key)
	}

	result, err, _ := p.group.Do(key, func() (interface{}, error) {
		entries, err := p.source.ActiveProperties(ctx, agentID)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(entries); err == nil {
			if err := p.client.Set(ctx, key, data, p.ttl).Err(); err != nil && p.log != nil {
				p.log.Warn("snapshot cache write failed", "error", err)
			}
		}

		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]SnapshotEntry), nil
}

// Invalidate drops the cached snapshot, forcing the next read to hit the source.
func (p *CachedProvider) Invalidate(ctx context.Context) {
	if err := p.client.Del(ctx, cacheKeyAll).Err(); err != nil && p.log != nil {
		p.log.Warn("snapshot cache invalidation failed", "error", err)
	}
}

var _ SnapshotProvider = (*CachedProvider)(nil)
