package cache

import (
	"errors"
	"testing"
	"time"
)

// clock is a manually advanced time source
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(cfg Config) (*Cache[string], *clock) {
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](cfg)
	c.now = clk.now
	return c, clk
}

func TestGetSet(t *testing.T) {
	c, _ := newTestCache(Config{MaxItems: 4})

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get() on empty cache should miss")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Errorf("Get(a) after overwrite = %q", v)
	}
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get() after Delete should miss")
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 2 || s.HitRate != 50 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestExpiration(t *testing.T) {
	c, clk := newTestCache(Config{MaxItems: 10, TTL: time.Minute})
	c.Set("short", "x")
	c.SetWithTTL("forever", "y", 0)

	clk.advance(30 * time.Second)
	if _, ok := c.Get("short"); !ok {
		t.Error("item should live until its TTL")
	}

	clk.advance(time.Minute)
	if _, ok := c.Get("short"); ok {
		t.Error("expired item should miss")
	}
	if _, ok := c.Get("forever"); !ok {
		t.Error("item without TTL should not expire")
	}

	c.SetWithTTL("gone", "z", time.Second)
	clk.advance(2 * time.Second)
	if n := c.Prune(); n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c, clk := newTestCache(Config{MaxItems: 2})
	c.Set("a", "1")
	clk.advance(time.Second)
	c.Set("b", "2")
	clk.advance(time.Second)
	c.Get("a")
	clk.advance(time.Second)
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("b was least recently used and should be evicted")
	}
	for _, key := range []string{"a", "c"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should still be cached", key)
		}
	}

	// overwriting an existing key never evicts
	c.Set("a", "again")
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestGetOrSet(t *testing.T) {
	c, _ := newTestCache(DefaultConfig())
	calls := 0
	compute := func() (string, error) {
		calls++
		return "computed", nil
	}

	for n := 0; n < 3; n++ {
		v, err := c.GetOrSet("k", compute)
		if err != nil || v != "computed" {
			t.Fatalf("GetOrSet() = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrSet("bad", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Errorf("GetOrSet() error = %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed computations must not be cached")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}
