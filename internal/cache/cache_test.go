package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func entry(path string) *Entry {
	return &Entry{Path: path, ModTime: 42, Width: 80, Height: 24, Lines: []string{"▀▀", "▀▀"}}
}

func TestSetGet(t *testing.T) {
	c, err := NewAt(t.TempDir())
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	if _, err := c.Get("a.png", 42, 80, 24); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := c.Set(entry("a.png")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.Get("a.png", 42, 80, 24)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got.Lines))
	}

	if _, err := c.Get("a.png", 42, 81, 24); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss for another size, got %v", err)
	}
	if _, err := c.Get("a.png", 43, 80, 24); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss for a newer file, got %v", err)
	}
}

func TestDiskLayerSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewAt(dir)
	if err := c.Set(entry("a.png")); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, _ := NewAt(dir)
	got, err := reopened.Get("a.png", 42, 80, 24)
	if err != nil {
		t.Fatalf("get from disk: %v", err)
	}
	if got.Lines[0] != "▀▀" {
		t.Fatalf("unexpected lines %q", got.Lines)
	}
}

func TestCorruptFile(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewAt(dir)

	path := filepath.Join(dir, Key("a.png", 42, 80, 24)+".bin")
	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Get("a.png", 42, 80, 24); !errors.Is(err, ErrCacheCorrupt) {
		t.Fatalf("expected corrupt, got %v", err)
	}
}

func TestExpiredAndPrune(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewAt(dir)
	c.ttl = -time.Hour

	if err := c.Set(entry("old.png")); err != nil {
		t.Fatalf("set: %v", err)
	}

	c.ttl = time.Hour
	if err := c.Set(entry("new.png")); err != nil {
		t.Fatalf("set: %v", err)
	}

	pruned, err := c.Prune()
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned, got %d", pruned)
	}

	count, size, err := c.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 1 || size == 0 {
		t.Fatalf("expected one live entry, got %d (%d bytes)", count, size)
	}

	reopened, _ := NewAt(dir)
	if _, err := reopened.Get("old.png", 42, 80, 24); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected pruned entry to miss, got %v", err)
	}
}

func TestClearAndDelete(t *testing.T) {
	c, _ := NewAt(t.TempDir())
	_ = c.Set(entry("a.png"))
	_ = c.Set(entry("b.png"))

	if err := c.Delete("a.png", 42, 80, 24); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get("a.png", 42, 80, 24); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected deleted entry to miss, got %v", err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	count, _, _ := c.Stats()
	if count != 0 {
		t.Fatalf("expected empty cache, got %d", count)
	}
}

func TestDisabled(t *testing.T) {
	c := Disabled()
	if err := c.Set(entry("a.png")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := c.Get("a.png", 42, 80, 24); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected disabled cache to miss, got %v", err)
	}
	if c.Enabled() {
		t.Fatal("expected disabled")
	}
}

func TestNewUsesXDGCacheHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", home)

	c, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.Dir() != filepath.Join(home, "scrollreel", "frames") {
		t.Fatalf("unexpected dir %s", c.Dir())
	}
}
