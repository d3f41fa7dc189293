package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/enrichcache"
	"quill/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the enrichment cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show enrichment cache size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Cache.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Enrichment cache is disabled")
				return nil
			}
			cache, err := enrichcache.Open(cfg.Cache.Path, logging.NewNop())
			if err != nil {
				return fmt.Errorf("open enrichment cache: %w", err)
			}
			defer cache.Close()

			count, err := cache.Count(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"path":    cfg.Cache.Path,
					"entries": count,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache path: %s\n", cfg.Cache.Path)
			fmt.Fprintf(out, "Entries: %d\n", count)
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cache entries older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Cache.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Enrichment cache is disabled")
				return nil
			}
			cache, err := enrichcache.Open(cfg.Cache.Path, logging.NewNop())
			if err != nil {
				return fmt.Errorf("open enrichment cache: %w", err)
			}
			defer cache.Close()

			removed, err := cache.Prune(cmd.Context(), maxAge)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entr(ies) older than %s\n", removed, maxAge)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 30*24*time.Hour, "Delete entries older than this duration")
	return cmd
}
