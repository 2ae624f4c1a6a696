// Package cache provides a two-level cache for synthesized phoneme batches.
// It includes an in-memory LRU cache (L1) and a persistent zstd-compressed
// disk cache (L2). Cached audio is an acceleration layer only; a miss always
// falls back to inference.
package cache
