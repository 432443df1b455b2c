package cache

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chazu/tiersplit/syntax"
	"github.com/chazu/tiersplit/transform"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := openTemp(t)

	if _, err := c.Get("k", transform.Tier1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty cache: got %v, want ErrNotFound", err)
	}

	if err := c.Put("k", transform.Tier1, "x = 1\n", "run-a"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e, err := c.Get("k", transform.Tier1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Output != "x = 1\n" || e.RunID != "run-a" {
		t.Errorf("entry = %+v", e)
	}
	if e.Created.IsZero() {
		t.Error("entry has no creation time")
	}

	// Tiers are cached independently.
	if _, err := c.Get("k", transform.Tier2); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get tier2: got %v, want ErrNotFound", err)
	}

	// Replace
	if err := c.Put("k", transform.Tier1, "x = 2\n", "run-b"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e, err = c.Get("k", transform.Tier1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Output != "x = 2\n" || e.RunID != "run-b" {
		t.Errorf("replaced entry = %+v", e)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Put("k", transform.Tier2, "pass\n", "r"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	c, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	if c.Path() != path {
		t.Errorf("Path() = %q, want %q", c.Path(), path)
	}
	if e, err := c.Get("k", transform.Tier2); err != nil || e.Output != "pass\n" {
		t.Errorf("after reopen: %+v, %v", e, err)
	}
}

func TestConcurrentPut(t *testing.T) {
	c := openTemp(t)

	var wg sync.WaitGroup
	for _, tier := range []transform.Tier{transform.Tier1, transform.Tier2} {
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(tier transform.Tier, i int) {
				defer wg.Done()
				key := string(rune('a' + i))
				if err := c.Put(key, tier, key, "r"); err != nil {
					t.Errorf("Put(%s, %s): %v", key, tier, err)
				}
			}(tier, i)
		}
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		key := string(rune('a' + i))
		if e, err := c.Get(key, transform.Tier2); err != nil || e.Output != key {
			t.Errorf("Get(%s): %+v, %v", key, e, err)
		}
	}
}

func TestPrune(t *testing.T) {
	c := openTemp(t)
	if err := c.Put("old", transform.Tier1, "", "r"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	n, err := c.Prune(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	if _, err := c.Get("old", transform.Tier1); !errors.Is(err, ErrNotFound) {
		t.Errorf("after prune: got %v, want ErrNotFound", err)
	}
}

func TestKey(t *testing.T) {
	parse := func(src string) *syntax.Module {
		mod, err := syntax.ParseModule(src)
		if err != nil {
			t.Fatalf("ParseModule: %v", err)
		}
		return mod
	}
	opts := transform.Options{}

	a := Key(parse("x = 1\n"), opts)
	if b := Key(parse("\n\nx   =   1\n"), opts); a != b {
		t.Errorf("layout changed the key: %s vs %s", a, b)
	}
	if b := Key(parse("x = 2\n"), opts); a == b {
		t.Error("different trees share a key")
	}
	if b := Key(parse("x = 1\n"), transform.Options{StripQualifiedMarkers: true}); a == b {
		t.Error("different options share a key")
	}
}
