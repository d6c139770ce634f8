package properties

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type countingProvider struct {
	entries []SnapshotEntry
	err     error
	calls   atomic.Int64
}

func (p *countingProvider) ActiveProperties(_ context.Context, _ *uuid.UUID) ([]SnapshotEntry, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.entries, nil
}

func newCacheFixture(t *testing.T, source SnapshotProvider) (*CachedProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedProvider(source, client, time.Minute, nil), mr
}

func TestCachedProviderServesSecondReadFromCache(t *testing.T) {
	source := &countingProvider{entries: []SnapshotEntry{
		{ID: uuid.New(), Price: 4_800_000, Location: "Baner, Pune", PropertyType: "apartment", Status: "active"},
	}}
	cached, _ := newCacheFixture(t, source)

	first, err := cached.ActiveProperties(context.Background(), nil)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := cached.ActiveProperties(context.Background(), nil)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}

	if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
		t.Fatalf("expected identical snapshots, got %v and %v", first, second)
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected a single source query, got %d", got)
	}
}

func TestCachedProviderExpiryRefetches(t *testing.T) {
	source := &countingProvider{entries: []SnapshotEntry{{ID: uuid.New(), Price: 1, Status: "active"}}}
	cached, mr := newCacheFixture(t, source)

	if _, err := cached.ActiveProperties(context.Background(), nil); err != nil {
		t.Fatalf("read: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := cached.ActiveProperties(context.Background(), nil); err != nil {
		t.Fatalf("read after expiry: %v", err)
	}

	if got := source.calls.Load(); got != 2 {
		t.Fatalf("expected refetch after TTL, got %d source queries", got)
	}
}

func TestCachedProviderCorruptEntryFallsThrough(t *testing.T) {
	source := &countingProvider{entries: []SnapshotEntry{{ID: uuid.New(), Price: 1, Status: "active"}}}
	cached, mr := newCacheFixture(t, source)

	if err := mr.Set(cacheKeyAll, "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	entries, err := cached.ActiveProperties(context.Background(), nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected source snapshot, got %v", entries)
	}
	if got := source.calls.Load(); got != 1 {
		t.Fatalf("expected one source query after corrupt entry, got %d", got)
	}
}

func TestCachedProviderSourceErrorPropagates(t *testing.T) {
	source := &countingProvider{err: errors.New("listing service down")}
	cached, _ := newCacheFixture(t, source)

	if _, err := cached.ActiveProperties(context.Background(), nil); err == nil {
		t.Fatal("expected source error to propagate on cold cache")
	}
}

func TestCachedProviderScopesKeysByAgent(t *testing.T) {
	source := &countingProvider{entries: []SnapshotEntry{{ID: uuid.New(), Price: 1, Status: "active"}}}
	cached, _ := newCacheFixture(t, source)

	agentID := uuid.New()
	if _, err := cached.ActiveProperties(context.Background(), nil); err != nil {
		t.Fatalf("global read: %v", err)
	}
	if _, err := cached.ActiveProperties(context.Background(), &agentID); err != nil {
		t.Fatalf("agent read: %v", err)
	}

	// Different keys, so the agent-scoped read misses the global entry.
	if got := source.calls.Load(); got != 2 {
		t.Fatalf("expected two source queries for two keys, got %d", got)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	source := &countingProvider{entries: []SnapshotEntry{{ID: uuid.New(), Price: 1, Status: "active"}}}
	cached, _ := newCacheFixture(t, source)

	if _, err := cached.ActiveProperties(context.Background(), nil); err != nil {
		t.Fatalf("read: %v", err)
	}
	cached.Invalidate(context.Background())
	if _, err := cached.ActiveProperties(context.Background(), nil); err != nil {
		t.Fatalf("read after invalidate: %v", err)
	}

	if got := source.calls.Load(); got != 2 {
		t.Fatalf("expected refetch after invalidation, got %d source queries", got)
	}
}
