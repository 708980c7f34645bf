package cache

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestTTLCacheExpiresEntries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewTTLCache[string, int](time.Minute, 0).WithClock(clock.Now)

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected hit with 1, got %v %v", v, ok)
	}

	clock.Advance(time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("entry should still be valid exactly at expiry")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be dropped on read, len=%d", c.Len())
	}
}

func TestTTLCachePerEntryTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewTTLCache[string, string](24*time.Hour, 0).WithClock(clock.Now)

	c.Set("found", "yes")
	c.SetWithTTL("missing", "", 10*time.Minute)

	clock.Advance(11 * time.Minute)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("negative entry should expire after its own ttl")
	}
	if _, ok := c.Get("found"); !ok {
		t.Fatal("positive entry should survive")
	}
}

func TestTTLCacheEvictsSoonestExpiringWhenFull(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewTTLCache[string, int](time.Hour, 2).WithClock(clock.Now)

	c.Set("first", 1)
	clock.Advance(time.Minute)
	c.Set("second", 2)
	clock.Advance(time.Minute)
	c.Set("third", 3)

	if c.Len() != 2 {
		t.Fatalf("expected cap of 2, got %d", c.Len())
	}
	if _, ok := c.Get("first"); ok {
		t.Fatal("oldest-expiring entry should have been evicted")
	}
	for _, key := range []string{"second", "third"} {
		if _, ok := c.Get(key); !ok {
			t.Fatalf("expected %s to remain", key)
		}
	}
}

func TestTTLCacheOverwriteDoesNotEvict(t *testing.T) {
	c := NewTTLCache[string, int](time.Hour, 2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("b", 3)

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	if v, _ := c.Get("b"); v != 3 {
		t.Fatalf("expected overwritten value 3, got %d", v)
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("overwrite must not evict other entries")
	}
}

func TestTTLCacheSweepsExpiredOnWrite(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewTTLCache[int, int](time.Minute, 0).WithClock(clock.Now)
	for i := 0; i < 5; i++ {
		c.Set(i, i)
	}
	clock.Advance(2 * time.Minute)
	c.Set(100, 100)
	if c.Len() != 1 {
		t.Fatalf("expected expired entries swept on write, len=%d", c.Len())
	}
}
