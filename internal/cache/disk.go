package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const diskFileExt = ".zst"

// DiskCache implements an L2 persistent cache. Each entry is a single
// zstd-compressed file named after the sha256 of its key, so the cache
// survives restarts without a separate index.
type DiskCache struct {
	basePath string
	capacity int64
	ttl      time.Duration

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu    sync.Mutex
	size  int64
	stats CacheStats
}

type diskEntry struct {
	path    string
	size    int64
	modTime time.Time
}

// NewDiskCache creates a disk cache rooted at basePath.
func NewDiskCache(basePath string, capacity int64, compressionLevel int, ttl time.Duration) (*DiskCache, error) {
	if basePath == "" {
		return nil, fmt.Errorf("disk cache path is empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	if compressionLevel <= 0 {
		compressionLevel = 1
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		ttl:      ttl,
		stats:    CacheStats{Capacity: capacity},
	}

	var err error
	dc.encoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		dc.encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	dc.size = dc.calculateSize()
	return dc, nil
}

// Get reads and decompresses an entry.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	path := dc.generateFilePath(key)
	info, err := os.Stat(path)
	if err != nil {
		dc.stats.Misses++
		return nil, false
	}
	if dc.ttl > 0 && time.Since(info.ModTime()) > dc.ttl {
		dc.removeFile(path, info.Size())
		dc.stats.Misses++
		return nil, false
	}

	compressed, err := os.ReadFile(path)
	if err != nil {
		dc.stats.Misses++
		return nil, false
	}
	value, err := dc.decode(compressed)
	if err != nil {
		// corrupted entries are dropped and treated as a miss
		log.Debug("Dropping cache entry", "path", path, "error", err)
		dc.removeFile(path, info.Size())
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	_ = os.Chtimes(path, now, now)
	dc.stats.Hits++
	dc.stats.LastAccess = now
	return value, true
}

// Put compresses and writes an entry, evicting the oldest files when the
// cache exceeds its capacity.
func (dc *DiskCache) Put(key string, value []byte) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	compressed := dc.encoder.EncodeAll(value, nil)
	size := int64(len(compressed))
	if dc.capacity > 0 && size > dc.capacity {
		return ErrItemTooLarge
	}

	path := dc.generateFilePath(key)
	if info, err := os.Stat(path); err == nil {
		dc.size -= info.Size()
	}
	if err := dc.writeFile(path, compressed); err != nil {
		return err
	}
	dc.size += size

	if dc.capacity > 0 && dc.size > dc.capacity {
		dc.evictUntil(dc.capacity, path)
	}
	return nil
}

// Delete removes an entry.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	path := dc.generateFilePath(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	dc.removeFile(path, info.Size())
	return nil
}

// Clear removes every cache file.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, e := range dc.entries() {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove cache file: %w", err)
		}
	}
	dc.size = 0
	return nil
}

// Stats returns a snapshot of cache statistics.
func (dc *DiskCache) Stats() CacheStats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Size = dc.size
	stats.ItemCount = int64(len(dc.entries()))
	return stats
}

// Close releases the zstd encoder and decoder.
func (dc *DiskCache) Close() error {
	dc.decoder.Close()
	return dc.encoder.Close()
}

func (dc *DiskCache) decode(compressed []byte) ([]byte, error) {
	value, err := dc.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	return value, nil
}

func (dc *DiskCache) generateFilePath(key string) string {
	hash := sha256.Sum256([]byte(key))
	name := hex.EncodeToString(hash[:])
	// two-level fan-out keeps directories small
	return filepath.Join(dc.basePath, name[:2], name+diskFileExt)
}

func (dc *DiskCache) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache subdirectory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit cache file: %w", err)
	}
	return nil
}

func (dc *DiskCache) removeFile(path string, size int64) {
	if err := os.Remove(path); err == nil {
		dc.size -= size
	}
}

// evictUntil removes the least recently touched files until the cache fits
// within target. The file at keep is never evicted.
func (dc *DiskCache) evictUntil(target int64, keep string) {
	entries := dc.entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})

	for _, e := range entries {
		if dc.size <= target {
			return
		}
		if e.path == keep {
			continue
		}
		dc.removeFile(e.path, e.size)
		dc.stats.Evictions++
	}
}

func (dc *DiskCache) entries() []diskEntry {
	var out []diskEntry
	_ = filepath.WalkDir(dc.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, diskFileExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, diskEntry{path: path, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	return out
}

func (dc *DiskCache) calculateSize() int64 {
	var total int64
	for _, e := range dc.entries() {
		total += e.size
	}
	return total
}
