package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

var ctx = context.Background()

func TestLRUCache(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T)
	}{
		{"SetAndGet", testSetAndGet},
		{"GetMiss", testGetMiss},
		{"GetExpired", testGetExpired},
		{"EvictsLeastRecentlyUsed", testEvictsLeastRecentlyUsed},
		{"InvalidateRemovesEntry", testInvalidateRemovesEntry},
		{"InvalidatePrefix", testInvalidatePrefix},
		{"SetUpdatesExisting", testSetUpdatesExisting},
		{"SetAtRejectsStaleGeneration", testSetAtRejectsStaleGeneration},
		{"ConcurrentAccess", testConcurrentAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.fn)
	}
}

func mustGet(t *testing.T, c Store, key string) ([]byte, bool) {
	t.Helper()
	v, ok, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v, ok
}

func testSetAndGet(t *testing.T) {
	c := NewLRUCache(10, 5*time.Second)
	_ = c.Set(ctx, "key1", []byte("value1"))

	got, ok := mustGet(t, c, "key1")
	if !ok {
		t.Fatal("expected cache hit, got miss")
	}
	if string(got) != "value1" {
		t.Fatalf("expected %q, got %q", "value1", string(got))
	}
}

func testGetMiss(t *testing.T) {
	c := NewLRUCache(10, 5*time.Second)

	got, ok := mustGet(t, c, "nonexistent")
	if ok {
		t.Fatal("expected cache miss, got hit")
	}
	if got != nil {
		t.Fatalf("expected nil value on miss, got %q", string(got))
	}
}

func testGetExpired(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	_ = c.Set(ctx, "key1", []byte("value1"))

	if _, ok := mustGet(t, c, "key1"); !ok {
		t.Fatal("expected cache hit before expiry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := mustGet(t, c, "key1"); ok {
		t.Fatal("expected cache miss after expiry")
	}
	if c.Size() != 0 {
		t.Fatalf("expected expired entry to be removed, size=%d", c.Size())
	}
}

func testEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache(2, time.Minute)
	_ = c.Set(ctx, "a", []byte("1"))
	_ = c.Set(ctx, "b", []byte("2"))

	// Touch "a" so that "b" becomes the least recently used.
	mustGet(t, c, "a")
	_ = c.Set(ctx, "c", []byte("3"))

	if _, ok := mustGet(t, c, "b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if _, ok := mustGet(t, c, "a"); !ok {
		t.Fatal("expected a to survive")
	}
	if _, ok := mustGet(t, c, "c"); !ok {
		t.Fatal("expected c to be present")
	}
}

func testInvalidateRemovesEntry(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	_ = c.Set(ctx, "key1", []byte("v"))
	_ = c.Invalidate(ctx, "key1")

	if _, ok := mustGet(t, c, "key1"); ok {
		t.Fatal("expected miss after invalidate")
	}
}

func testInvalidatePrefix(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	_ = c.Set(ctx, "leilao:/api/v1/dashboard", []byte("1"))
	_ = c.Set(ctx, "leilao:/api/v1/leiloes", []byte("2"))
	_ = c.Set(ctx, "checklist:/api/v1/checklist/templates", []byte("3"))

	_ = c.InvalidatePrefix(ctx, "leilao:")

	if c.Size() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Size())
	}
	if _, ok := mustGet(t, c, "checklist:/api/v1/checklist/templates"); !ok {
		t.Fatal("expected unrelated key to survive")
	}
}

func testSetUpdatesExisting(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	_ = c.Set(ctx, "key1", []byte("old"))
	_ = c.Set(ctx, "key1", []byte("new"))

	got, _ := mustGet(t, c, "key1")
	if string(got) != "new" {
		t.Fatalf("expected %q, got %q", "new", string(got))
	}
	if c.Size() != 1 {
		t.Fatalf("expected size 1, got %d", c.Size())
	}
}

func testSetAtRejectsStaleGeneration(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	gen, _ := c.Generation(ctx)

	if ok, _ := c.SetAt(ctx, "leilao:/a", []byte("fresh"), gen); !ok {
		t.Fatal("expected store at current generation")
	}

	_ = c.InvalidatePrefix(ctx, "leilao:")
	if ok, _ := c.SetAt(ctx, "leilao:/a", []byte("stale"), gen); ok {
		t.Fatal("expected store to be refused after invalidation")
	}
	if _, hit := mustGet(t, c, "leilao:/a"); hit {
		t.Fatal("stale body must not be cached")
	}

	next, _ := c.Generation(ctx)
	if next != gen+1 {
		t.Fatalf("expected generation %d, got %d", gen+1, next)
	}
	_ = c.Invalidate(ctx, "other")
	if g, _ := c.Generation(ctx); g != gen+2 {
		t.Fatalf("Invalidate should bump generation, got %d", g)
	}
}

func testConcurrentAccess(t *testing.T) {
	c := NewLRUCache(50, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (n*j)%80)
				_ = c.Set(ctx, key, []byte("v"))
				_, _, _ = c.Get(ctx, key)
				if j%25 == 0 {
					_ = c.InvalidatePrefix(ctx, "k1")
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Size() > 50 {
		t.Fatalf("cache grew past max size: %d", c.Size())
	}
}
