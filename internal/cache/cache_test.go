package cache

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := NewMemoryCache(1024)

	if err := cache.Put("key1", []byte("value1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := cache.Get("key1")
	if !ok {
		t.Fatal("expected hit for key1")
	}
	if string(got) != "value1" {
		t.Errorf("Get = %q, want value1", got)
	}

	if _, ok := cache.Get("missing"); ok {
		t.Error("expected miss for missing key")
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats hits=%d misses=%d, want 1/1", stats.Hits, stats.Misses)
	}
	if stats.HitRate() != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", stats.HitRate())
	}

	if err := cache.Delete("key1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := cache.Get("key1"); ok {
		t.Error("key1 should be gone after Delete")
	}
	if n := cache.Stats().ItemCount; n != 0 {
		t.Errorf("ItemCount = %d, want 0", n)
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	cache := NewMemoryCache(30)

	for i := 0; i < 3; i++ {
		if err := cache.Put(fmt.Sprintf("key%d", i), bytes.Repeat([]byte{byte(i)}, 10)); err != nil {
			t.Fatal(err)
		}
	}

	// touch key0 so key1 becomes the oldest
	cache.Get("key0")

	if err := cache.Put("key3", bytes.Repeat([]byte{3}, 10)); err != nil {
		t.Fatal(err)
	}

	stats := cache.Stats()
	if stats.Size != 30 || stats.ItemCount != 3 {
		t.Errorf("Size = %d, ItemCount = %d, want 30/3", stats.Size, stats.ItemCount)
	}
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}

	if _, ok := cache.Get("key1"); ok {
		t.Error("key1 should have been evicted")
	}
	for _, k := range []string{"key0", "key2", "key3"} {
		if _, ok := cache.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
}

func TestMemoryCache_ItemTooLarge(t *testing.T) {
	cache := NewMemoryCache(4)
	if err := cache.Put("big", []byte("too large")); err != ErrItemTooLarge {
		t.Errorf("Put = %v, want ErrItemTooLarge", err)
	}
}

func TestDiskCache_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	dc, err := NewDiskCache(dir, 1<<20, 3, 0)
	if err != nil {
		t.Fatalf("NewDiskCache: %v", err)
	}
	value := bytes.Repeat([]byte("kokoro"), 100)
	if err := dc.Put("batch", value); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := dc.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewDiskCache(dir, 1<<20, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, ok := reopened.Get("batch")
	if !ok {
		t.Fatal("expected hit after reopen")
	}
	if !bytes.Equal(got, value) {
		t.Error("value changed across reopen")
	}
	if stats := reopened.Stats(); stats.Size == 0 || stats.ItemCount != 1 {
		t.Errorf("existing files not accounted for: %+v", stats)
	}
}

func TestDiskCache_CorruptedEntryIsMiss(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()

	if err := dc.Put("key", []byte("value")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dc.generateFilePath("key"), []byte("not zstd"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := dc.Get("key"); ok {
		t.Error("corrupted entry should be a miss")
	}
	if _, err := os.Stat(dc.generateFilePath("key")); !os.IsNotExist(err) {
		t.Error("corrupted entry should be removed")
	}

	if _, err := dc.decode([]byte("not zstd")); !errors.Is(err, ErrCacheCorrupted) {
		t.Errorf("decode = %v, want ErrCacheCorrupted", err)
	}
}

func TestDiskCache_EvictsOldest(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20, 3, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()

	if err := dc.Put("old", bytes.Repeat([]byte{1}, 64)); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(dc.generateFilePath("old"), past, past); err != nil {
		t.Fatal(err)
	}
	if err := dc.Put("new", bytes.Repeat([]byte{2}, 64)); err != nil {
		t.Fatal(err)
	}

	// shrink the budget to the newest entry only
	dc.mu.Lock()
	dc.evictUntil(dc.size-1, "")
	dc.mu.Unlock()

	if _, err := os.Stat(dc.generateFilePath("old")); !os.IsNotExist(err) {
		t.Error("oldest entry should be evicted first")
	}
	if _, err := os.Stat(dc.generateFilePath("new")); err != nil {
		t.Error("newest entry should survive")
	}
}

func TestDiskCache_TTL(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 3, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close()

	if err := dc.Put("key", []byte("value")); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(dc.generateFilePath("key"), past, past); err != nil {
		t.Fatal(err)
	}
	if _, ok := dc.Get("key"); ok {
		t.Error("expired entry should be a miss")
	}
}

func TestCacheManager_PromotesDiskHits(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audio")
	cfg := DefaultCacheConfig()
	cfg.DiskPath = dir

	cm, err := NewCacheManager(cfg)
	if err != nil {
		t.Fatalf("NewCacheManager: %v", err)
	}
	defer cm.Close()

	if err := cm.Put("k", []byte("pcm")); err != nil {
		t.Fatal(err)
	}
	// drop L1 so the next read comes from disk
	_ = cm.l1Memory.Clear()

	if got, ok := cm.Get("k"); !ok || string(got) != "pcm" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	if n := cm.l1Memory.Stats().ItemCount; n != 1 {
		t.Errorf("disk hit should be promoted to memory, L1 holds %d items", n)
	}
	if _, ok := cm.Get("absent"); ok {
		t.Error("expected miss")
	}

	stats := cm.Stats()
	if stats["l2_hits"].(int64) != 1 || stats["promotions"].(int64) != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
	if stats["total_misses"].(int64) != 1 {
		t.Errorf("total_misses = %v, want 1", stats["total_misses"])
	}
	if rate := stats["hit_rate"].(float64); rate != 0.5 {
		t.Errorf("hit_rate = %v, want 0.5", rate)
	}
}

func TestCacheManager_DeleteAndClear(t *testing.T) {
	cfg := DefaultCacheConfig()
	cfg.DiskPath = t.TempDir()
	cm, err := NewCacheManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer cm.Close()

	for _, k := range []string{"a", "b"} {
		if err := cm.Put(k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	if err := cm.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if _, ok := cm.Get("a"); ok {
		t.Error("deleted key still cached")
	}
	if _, ok := cm.Get("b"); !ok {
		t.Error("Delete removed an unrelated key")
	}

	if err := cm.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := cm.Get("b"); ok {
		t.Error("Clear left an entry behind")
	}
	if n := cm.l2Disk.Stats().ItemCount; n != 0 {
		t.Errorf("disk still holds %d items", n)
	}
}

func TestCacheManager_RequiresDiskPath(t *testing.T) {
	if _, err := NewCacheManager(&CacheConfig{MemoryCapacity: 10}); err == nil {
		t.Error("expected error without DiskPath")
	}
}

func TestGenerateCacheKey(t *testing.T) {
	a := GenerateCacheKey("model-a", "həlˈoʊ", "af_sarah", 1.0, "en-us")
	b := GenerateCacheKey("model-a", "həlˈoʊ", "af_sarah", 1.0, "en-us")
	if a != b {
		t.Error("key should be deterministic")
	}
	if len(a) != 32 {
		t.Errorf("key length = %d, want 32", len(a))
	}

	variants := []string{
		GenerateCacheKey("model-a", "həlˈoʊ", "af_nicole", 1.0, "en-us"),
		GenerateCacheKey("model-a", "həlˈoʊ", "af_sarah", 1.5, "en-us"),
		GenerateCacheKey("model-a", "həlˈoʊ", "af_sarah", 1.0, "en-gb"),
		GenerateCacheKey("model-a", "wˈɜːld", "af_sarah", 1.0, "en-us"),
		GenerateCacheKey("model-b", "həlˈoʊ", "af_sarah", 1.0, "en-us"),
	}
	for i, v := range variants {
		if v == a {
			t.Errorf("variant %d collides with base key", i)
		}
	}
}
