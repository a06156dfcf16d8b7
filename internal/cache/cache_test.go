package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/worldview/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("ab", "c")
	b := Key("a", "bc")
	if a == b {
		t.Error("keys for different part boundaries collide")
	}
	if !strings.HasPrefix(a, "worldview:v1:") {
		t.Errorf("unexpected prefix: %s", a)
	}
	if Key("x", "y") != Key("x", "y") {
		t.Error("key is not deterministic")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Errorf("Get = %q, %v", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d", c.Len())
	}

	_ = c.Set("short", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Error("expired item returned")
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("deleted item returned")
	}
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)
	key := Key("prompt")

	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache returned a value")
	}
	if err := c.Set(key, []byte(`{"edits":[]}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok := c.Get(key); !ok || string(got) != `{"edits":[]}` {
		t.Errorf("Get = %q, %v", got, ok)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || strings.Contains(entries[0].Name(), ":") || !strings.HasSuffix(entries[0].Name(), ".cache") {
		t.Errorf("unexpected files: %v", entries)
	}

	if err := c.Set(key, []byte("old"), -time.Second); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expired entry returned")
	}

	if err := c.Delete("missing"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestDiskCache_ClearKeepsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewDiskCache(dir, time.Hour)
	_ = c.Set(Key("a"), []byte("1"), 0)
	_ = c.Set(Key("b"), []byte("2"), 0)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := c.Get(Key("a")); ok {
		t.Error("entry survived Clear")
	}
	if _, err := os.Stat(other); err != nil {
		t.Errorf("Clear removed unrelated file: %v", err)
	}

	if err := NewDiskCache(filepath.Join(dir, "absent"), time.Hour).Clear(); err != nil {
		t.Errorf("Clear of missing dir: %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	key := Key("x")

	first := NewLayeredCache(time.Hour, dir, time.Hour)
	if err := first.Set(key, []byte("v"), 0); err != nil {
		t.Fatal(err)
	}

	// A fresh process sees only the disk layer
	second := NewLayeredCache(time.Hour, dir, time.Hour)
	if got, ok := second.Get(key); !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if mem := second.memory.(*MemoryCache); mem.Len() != 1 {
		t.Errorf("disk hit not promoted to memory")
	}

	if err := second.Delete(key); err != nil {
		t.Fatal(err)
	}
	if _, ok := first.disk.Get(key); ok {
		t.Error("Delete did not reach disk")
	}
}

func TestNew(t *testing.T) {
	if _, ok := New(model.CacheConfig{Enabled: false}).(Noop); !ok {
		t.Error("disabled cache should be Noop")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, TTL: time.Hour}).(*MemoryCache); !ok {
		t.Error("cache without dir should be memory-only")
	}
	c := New(model.CacheConfig{Enabled: true, Dir: t.TempDir(), TTL: time.Hour})
	if _, ok := c.(*LayeredCache); !ok {
		t.Errorf("expected layered cache, got %T", c)
	}
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	type reply struct {
		Text string `json:"text"`
	}

	if err := SetJSON(c, "k", reply{Text: "hi"}, 0); err != nil {
		t.Fatal(err)
	}
	var got reply
	if !GetJSON(c, "k", &got) || got.Text != "hi" {
		t.Errorf("GetJSON = %+v", got)
	}

	_ = c.Set("bad", []byte("{"), 0)
	if GetJSON(c, "bad", &got) {
		t.Error("invalid JSON should miss")
	}
}
