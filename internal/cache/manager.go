package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// CacheManager coordinates the memory and disk levels. Hits on the disk
// level are promoted to memory.
type CacheManager struct {
	l1Memory *MemoryCache
	l2Disk   *DiskCache

	config *CacheConfig

	mu    sync.RWMutex
	stats struct {
		TotalHits   int64
		TotalMisses int64
		L1Hits      int64
		L2Hits      int64
		Promotions  int64
		LastAccess  time.Time
	}
}

// NewCacheManager creates a cache manager. DiskPath must be set.
func NewCacheManager(config *CacheConfig) (*CacheManager, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}
	if config.DiskPath == "" {
		return nil, fmt.Errorf("cache directory not configured")
	}

	l2Disk, err := NewDiskCache(config.DiskPath, config.DiskCapacity, config.CompressionLevel, config.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}

	return &CacheManager{
		l1Memory: NewMemoryCache(config.MemoryCapacity),
		l2Disk:   l2Disk,
		config:   config,
	}, nil
}

// Get looks a key up in L1 then L2.
func (cm *CacheManager) Get(key string) ([]byte, bool) {
	if data, ok := cm.l1Memory.Get(key); ok {
		cm.recordHit(CacheLevelL1)
		return data, true
	}

	if data, ok := cm.l2Disk.Get(key); ok {
		cm.recordHit(CacheLevelL2)
		if err := cm.l1Memory.Put(key, data); err == nil {
			cm.mu.Lock()
			cm.stats.Promotions++
			cm.mu.Unlock()
		}
		return data, true
	}

	cm.mu.Lock()
	cm.stats.TotalMisses++
	cm.mu.Unlock()
	return nil, false
}

// Put stores data in both levels. An item too large for memory is still
// written to disk.
func (cm *CacheManager) Put(key string, data []byte) error {
	if err := cm.l1Memory.Put(key, data); err != nil && err != ErrItemTooLarge {
		return err
	}
	if err := cm.l2Disk.Put(key, data); err != nil {
		return fmt.Errorf("failed to write disk cache: %w", err)
	}
	return nil
}

// Delete removes key from both levels.
func (cm *CacheManager) Delete(key string) error {
	if err := cm.l1Memory.Delete(key); err != nil {
		return err
	}
	return cm.l2Disk.Delete(key)
}

// Clear empties both levels.
func (cm *CacheManager) Clear() error {
	if err := cm.l1Memory.Clear(); err != nil {
		return err
	}
	return cm.l2Disk.Clear()
}

// Stats returns combined statistics keyed by level.
func (cm *CacheManager) Stats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	hitRate := CacheStats{Hits: cm.stats.TotalHits, Misses: cm.stats.TotalMisses}.HitRate()

	return map[string]interface{}{
		"total_hits":   cm.stats.TotalHits,
		"total_misses": cm.stats.TotalMisses,
		"hit_rate":     hitRate,
		"l1_hits":      cm.stats.L1Hits,
		"l2_hits":      cm.stats.L2Hits,
		"promotions":   cm.stats.Promotions,
		CacheLevelL1.String(): cm.l1Memory.Stats(),
		CacheLevelL2.String(): cm.l2Disk.Stats(),
	}
}

// Close releases the disk cache codecs.
func (cm *CacheManager) Close() error {
	return cm.l2Disk.Close()
}

func (cm *CacheManager) recordHit(level CacheLevel) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.stats.TotalHits++
	cm.stats.LastAccess = time.Now()
	switch level {
	case CacheLevelL1:
		cm.stats.L1Hits++
	case CacheLevelL2:
		cm.stats.L2Hits++
	}
}

// GenerateCacheKey derives a stable key for one synthesized phoneme batch.
// assets identifies the model files and vocabulary that produced it.
func GenerateCacheKey(assets, phonemes, voice string, speed float64, lang string) string {
	data := fmt.Sprintf("%s|%s|%s|%.2f|%s", assets, phonemes, voice, speed, lang)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
