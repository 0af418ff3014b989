package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte(`[{"figure_name":"P1"}]`), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get(k) = hit %v, err %v", hit, err)
	}
	if string(data) != `[{"figure_name":"P1"}]` {
		t.Errorf("Get(k) = %s", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "short", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry not removed from disk")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without TTL expired")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("Get(bad) = hit %v, err %v; want clean miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear", len(entries))
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := ExtractionKeyOpts{
		Model:             "gemini-2.5-flash",
		SystemInstruction: "extract",
		Prompt:            "go",
		ImageHashes:       []string{"aaa", "bbb"},
	}

	key := k.ExtractionKey(base)
	if !strings.HasPrefix(key, "extract:") {
		t.Errorf("ExtractionKey should be prefixed: %s", key)
	}
	if key != k.ExtractionKey(base) {
		t.Error("ExtractionKey should be deterministic")
	}

	variants := map[string]func(o *ExtractionKeyOpts){
		"model":       func(o *ExtractionKeyOpts) { o.Model = "gemini-2.5-pro" },
		"instruction": func(o *ExtractionKeyOpts) { o.SystemInstruction = "other" },
		"prompt":      func(o *ExtractionKeyOpts) { o.Prompt = "again" },
		"image":       func(o *ExtractionKeyOpts) { o.ImageHashes = []string{"aaa", "ccc"} },
		"order":       func(o *ExtractionKeyOpts) { o.ImageHashes = []string{"bbb", "aaa"} },
		"downscale":   func(o *ExtractionKeyOpts) { o.MaxDimension = 1024 },
	}
	for name, mod := range variants {
		t.Run(name, func(t *testing.T) {
			o := base
			o.ImageHashes = append([]string(nil), base.ImageHashes...)
			mod(&o)
			if k.ExtractionKey(o) == key {
				t.Errorf("changing %s should change the key", name)
			}
		})
	}
}

func TestScopedKeyer(t *testing.T) {
	opts := ExtractionKeyOpts{Model: "m", ImageHashes: []string{"x"}}
	scoped := NewScopedKeyer(NewDefaultKeyer(), "staging:")

	key := scoped.ExtractionKey(opts)
	if key != "staging:"+NewDefaultKeyer().ExtractionKey(opts) {
		t.Errorf("ScopedKeyer key unexpected: %s", key)
	}

	// nil inner falls back to DefaultKeyer
	if got := NewScopedKeyer(nil, "p:").ExtractionKey(opts); !strings.HasPrefix(got, "p:extract:") {
		t.Errorf("Unexpected key with nil inner: %s", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Options{Backend: BackendFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Errorf("Open(file) = %T", c)
	}

	c, err = Open(ctx, Options{Backend: BackendNone})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*NullCache); !ok {
		t.Errorf("Open(none) = %T", c)
	}

	if _, err := Open(ctx, Options{Backend: "memcached"}); err == nil {
		t.Error("Open(memcached) should fail")
	}
	if _, err := Open(ctx, Options{Backend: BackendFile}); err == nil {
		t.Error("Open(file) without dir should fail")
	}
}
