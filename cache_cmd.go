package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/kokoro/internal/cache"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the synthesis cache",
		Long: paragraph(fmt.Sprintf("\n%s the on-disk cache of synthesized phoneme batches. The cache is only consulted when %s is set.",
			keyword("Manage"), keyword("cache.enabled"))),
		Example: paragraph("kokoro cache stats\nkokoro cache clear"),
		Args:    cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and item count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cm, err := openCacheStore()
			if err != nil {
				return err
			}
			defer func() { _ = cm.Close() }()
			return writeCacheStats(cmd.OutOrStdout(), cm)
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cm, err := openCacheStore()
			if err != nil {
				return err
			}
			defer func() { _ = cm.Close() }()

			if err := cm.Clear(); err != nil {
				return fmt.Errorf("unable to clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	}
)

// writeCacheStats prints one line per cache level.
func writeCacheStats(w io.Writer, cm *cache.CacheManager) error {
	stats := cm.Stats()
	for _, level := range []cache.CacheLevel{cache.CacheLevelL1, cache.CacheLevelL2} {
		s, ok := stats[level.String()].(cache.CacheStats)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-10s %d items, %s of %s, hit rate %.0f%%\n",
			level, s.ItemCount, humanize.Bytes(uint64(s.Size)), humanize.Bytes(uint64(s.Capacity)), //nolint:gosec
			s.HitRate()*100); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}
