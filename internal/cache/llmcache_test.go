package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLLMCache_SaveGet(t *testing.T) {
	c := &LLMCache{Dir: t.TempDir()}
	key := KeyFrom("model", "system", "<p>doc</p>")
	if err := c.Save(context.Background(), key, "model", "<div>fixed</div>"); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if got.Content != "<div>fixed</div>" || got.Model != "model" || got.SavedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", got)
	}
}

func TestLLMCache_MissAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := &LLMCache{Dir: dir}
	if _, ok, err := c.Get(context.Background(), "nope"); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
	p := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(p, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(context.Background(), "bad"); ok {
		t.Fatalf("corrupt entry must be a miss")
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("corrupt entry should be removed")
	}
}

func TestLLMCache_Disabled(t *testing.T) {
	var c *LLMCache
	if c.Enabled() {
		t.Fatal("nil cache must be disabled")
	}
	if err := (&LLMCache{}).Save(context.Background(), "k", "m", "x"); err == nil {
		t.Fatal("expected error without dir")
	}
}

func TestKeyFrom_DependsOnEveryPart(t *testing.T) {
	a := KeyFrom("m", "sys", "doc")
	if a == KeyFrom("m2", "sys", "doc") || a == KeyFrom("m", "sys2", "doc") || a == KeyFrom("m", "sys", "doc2") {
		t.Fatal("key must change with each part")
	}
	if a != KeyFrom("m", "sys", "doc") {
		t.Fatal("key must be deterministic")
	}
}

func TestEnforceLimits_LRU(t *testing.T) {
	dir := t.TempDir()
	c := &LLMCache{Dir: dir}
	keys := []string{KeyFrom("m", "p1"), KeyFrom("m", "p2"), KeyFrom("m", "p3")}
	base := time.Now().Add(-time.Hour)
	for i, k := range keys {
		if err := c.Save(context.Background(), k, "m", "x"); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		mt := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(filepath.Join(dir, k+".json"), mt, mt); err != nil {
			t.Fatal(err)
		}
	}
	// Touch p1 so p2 becomes the oldest.
	if _, ok, _ := c.Get(context.Background(), keys[0]); !ok {
		t.Fatal("expected hit")
	}
	removed, err := EnforceLimits(dir, 0, 2)
	if err != nil || removed != 1 {
		t.Fatalf("enforce: removed=%d err=%v", removed, err)
	}
	if _, ok, _ := c.Get(context.Background(), keys[1]); ok {
		t.Fatal("expected least recently used entry evicted")
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	c := &LLMCache{Dir: dir}
	old, fresh := KeyFrom("m", "old"), KeyFrom("m", "fresh")
	_ = c.Save(context.Background(), old, "m", "x")
	_ = c.Save(context.Background(), fresh, "m", "y")
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, old+".json"), past, past); err != nil {
		t.Fatal(err)
	}
	removed, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil || removed != 1 {
		t.Fatalf("purge: removed=%d err=%v", removed, err)
	}
	if n, _ := PurgeByAge(filepath.Join(dir, "missing"), time.Hour); n != 0 {
		t.Fatalf("missing dir should purge nothing")
	}
}

func TestClearDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "c")
	c := &LLMCache{Dir: dir}
	_ = c.Save(context.Background(), "k", "m", "x")
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	ents, err := os.ReadDir(dir)
	if err != nil || len(ents) != 0 {
		t.Fatalf("expected empty dir, got %d entries err=%v", len(ents), err)
	}
	if err := ClearDir("  "); err == nil {
		t.Fatal("expected error for blank dir")
	}
}
