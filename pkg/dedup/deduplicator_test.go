package dedup

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"news-ingest/pkg/db"
	"news-ingest/pkg/domain"
)

// mockStore is a mock ArticleStore that can simulate a concurrent writer
type mockStore struct {
	links       map[string]bool
	existsErr   error
	insertErr   error
	existsCalls int
	insertCalls int
}

func newMockStore() *mockStore {
	return &mockStore{links: make(map[string]bool)}
}

func (m *mockStore) Exists(ctx context.Context, link string) (bool, error) {
	m.existsCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.links[link], nil
}

func (m *mockStore) Insert(ctx context.Context, article *domain.Article) error {
	m.insertCalls++
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.links[article.Link] {
		return db.ErrDuplicate
	}
	m.links[article.Link] = true
	return nil
}

// mockCache is an in-memory LinkCache
type mockCache struct {
	links   map[string]bool
	seenErr error
	marks   int
}

func newMockCache() *mockCache {
	return &mockCache{links: make(map[string]bool)}
}

func (m *mockCache) Seen(ctx context.Context, link string) (bool, error) {
	if m.seenErr != nil {
		return false, m.seenErr
	}
	return m.links[link], nil
}

func (m *mockCache) Mark(ctx context.Context, link string) error {
	m.marks++
	m.links[link] = true
	return nil
}

func article(link string) *domain.Article {
	return &domain.Article{
		Title:       "Title",
		Link:        link,
		PublishedAt: time.Now(),
		Source:      domain.SourceNHK,
		Category:    "society",
	}
}

func TestDeduplicator_SaveIfNew(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	d := New(store, nil)

	outcome, err := d.SaveIfNew(ctx, article("https://example.test/a"))
	if err != nil || outcome != Inserted {
		t.Fatalf("Expected Inserted, got %s err=%v", outcome, err)
	}

	outcome, err = d.SaveIfNew(ctx, article("https://example.test/a"))
	if err != nil || outcome != Duplicate {
		t.Fatalf("Expected Duplicate on second save, got %s err=%v", outcome, err)
	}
	if store.insertCalls != 1 {
		t.Errorf("Expected a single insert, got %d", store.insertCalls)
	}
}

func TestDeduplicator_SaveIfNew_LostRaceIsDuplicate(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.insertErr = db.ErrDuplicate

	outcome, err := New(store, nil).SaveIfNew(ctx, article("https://example.test/raced"))
	if err != nil {
		t.Fatalf("Expected no error when the store rejects a duplicate, got %v", err)
	}
	if outcome != Duplicate {
		t.Errorf("Expected Duplicate, got %s", outcome)
	}
}

func TestDeduplicator_SaveIfNew_StoreErrors(t *testing.T) {
	ctx := context.Background()

	store := newMockStore()
	store.existsErr = errors.New("connection reset")
	if _, err := New(store, nil).SaveIfNew(ctx, article("https://example.test/a")); err == nil {
		t.Error("Expected exists error to propagate")
	}

	store = newMockStore()
	store.insertErr = errors.New("disk full")
	if _, err := New(store, nil).SaveIfNew(ctx, article("https://example.test/a")); err == nil {
		t.Error("Expected insert error to propagate")
	}
}

func TestDeduplicator_SaveIfNew_Invalid(t *testing.T) {
	store := newMockStore()
	a := article("https://example.test/a")
	a.Category = ""

	outcome, err := New(store, nil).SaveIfNew(context.Background(), a)
	if err != nil || outcome != Invalid {
		t.Fatalf("Expected Invalid without error, got %s err=%v", outcome, err)
	}
	if store.existsCalls != 0 || store.insertCalls != 0 {
		t.Error("Expected invalid record not to reach the store")
	}
}

func TestDeduplicator_ScopedCache(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	cache := newMockCache()
	d := NewScoped(store, cache)

	if _, err := d.SaveIfNew(ctx, article("https://example.test/a")); err != nil {
		t.Fatalf("SaveIfNew failed: %v", err)
	}
	if !cache.links["https://example.test/a"] {
		t.Fatal("Expected inserted link to be cached")
	}

	calls := store.existsCalls
	exists, err := d.Exists(ctx, "https://example.test/a")
	if err != nil || !exists {
		t.Fatalf("Expected cached link to exist, got %v err=%v", exists, err)
	}
	if store.existsCalls != calls {
		t.Error("Expected cache hit to skip the store")
	}

	// A cache failure falls back to the store.
	cache.seenErr = errors.New("redis down")
	exists, err = d.Exists(ctx, "https://example.test/a")
	if err != nil || !exists {
		t.Fatalf("Expected store fallback, got %v err=%v", exists, err)
	}
	if store.existsCalls != calls+1 {
		t.Error("Expected the store to be consulted on cache failure")
	}
}

func TestDeduplicator_StaleCacheDoesNotBlockInsert(t *testing.T) {
	ctx := context.Background()
	link := "https://example.test/a"

	// the cache outlived the store that filled it
	cache := newMockCache()
	if _, err := New(db.NewMemoryStore(), cache).SaveIfNew(ctx, article(link)); err != nil {
		t.Fatalf("SaveIfNew failed: %v", err)
	}

	fresh := db.NewMemoryStore()
	d := New(fresh, cache)
	exists, err := d.Exists(ctx, link)
	if err != nil || exists {
		t.Fatalf("Expected link to be unknown to the fresh store, got %v err=%v", exists, err)
	}
	outcome, err := d.SaveIfNew(ctx, article(link))
	if err != nil || outcome != Inserted {
		t.Fatalf("Expected Inserted, got %s err=%v", outcome, err)
	}
	if fresh.Len() != 1 {
		t.Errorf("Expected 1 stored article, got %d", fresh.Len())
	}
}

func TestDeduplicator_UnscopedCacheHitIsConfirmed(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.links["https://example.test/a"] = true
	cache := newMockCache()
	cache.links["https://example.test/a"] = true

	exists, err := New(store, cache).Exists(ctx, "https://example.test/a")
	if err != nil || !exists {
		t.Fatalf("Expected link to exist, got %v err=%v", exists, err)
	}
	if store.existsCalls != 1 {
		t.Errorf("Expected the store to confirm the cache hit, got %d lookups", store.existsCalls)
	}
}

func TestCachePrefix(t *testing.T) {
	a := CachePrefix("postgres", "postgres://h/db1|articles")
	b := CachePrefix("postgres", "postgres://h/db2|articles")
	c := CachePrefix("mongo", "postgres://h/db1|articles")
	if a == b || a == c {
		t.Errorf("Expected distinct prefixes per store, got %q %q %q", a, b, c)
	}
	if a != CachePrefix("postgres", "postgres://h/db1|articles") {
		t.Error("Expected prefix to be stable")
	}
}

func TestDeduplicator_WithMemoryStore_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	d := New(store, nil)

	links := []string{"https://example.test/1", "https://example.test/2", "https://example.test/1"}
	counts := map[Outcome]int{}
	for _, link := range links {
		outcome, err := d.SaveIfNew(ctx, article(link))
		if err != nil {
			t.Fatalf("SaveIfNew failed: %v", err)
		}
		counts[outcome]++
	}

	if counts[Inserted] != 2 || counts[Duplicate] != 1 {
		t.Errorf("Unexpected outcomes %v", counts)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 stored articles, got %d", store.Len())
	}
}

func TestIntegration_RedisLinkCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	cache, err := NewRedisLinkCache(ctx, RedisConfig{Addr: addr, Prefix: "news:test:", TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewRedisLinkCache failed: %v", err)
	}
	defer cache.Close()

	link := "https://example.test/redis/" + time.Now().Format(time.RFC3339Nano)
	seen, err := cache.Seen(ctx, link)
	if err != nil || seen {
		t.Fatalf("Expected unseen link, got %v err=%v", seen, err)
	}
	if err := cache.Mark(ctx, link); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	seen, err = cache.Seen(ctx, link)
	if err != nil || !seen {
		t.Fatalf("Expected seen link, got %v err=%v", seen, err)
	}
}

func TestRedisLinkCache_Key(t *testing.T) {
	c := &RedisLinkCache{prefix: "p:"}
	k1 := c.key("https://example.test/a")
	k2 := c.key("https://example.test/b")
	if k1 == k2 {
		t.Error("Expected distinct keys for distinct links")
	}
	if len(k1) != len("p:")+64 {
		t.Errorf("Expected prefix plus sha256 hex, got %q", k1)
	}
}

func TestNewRedisLinkCache_RequiresAddr(t *testing.T) {
	if _, err := NewRedisLinkCache(context.Background(), RedisConfig{}); err == nil {
		t.Error("Expected error without address")
	}
}
