package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pders01/newsagent/internal/config"
	"github.com/pders01/newsagent/internal/storage"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or empty the fetch cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and freshness",
	RunE: withStore(func(cmd *cobra.Command, store *storage.Store) error {
		st, err := store.Stats()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "documents: %d (%d expired)\n", st.Entries, st.Expired)
		fmt.Fprintf(out, "size:      %s\n", humanize.Bytes(uint64(st.Bytes)))
		if !st.LastWrite.IsZero() {
			fmt.Fprintf(out, "updated:   %s\n", humanize.Time(st.LastWrite))
		}
		return nil
	}),
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop expired documents",
	RunE: withStore(func(cmd *cobra.Command, store *storage.Store) error {
		n, err := store.Purge()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired documents\n", n)
		return nil
	}),
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached document",
	RunE: withStore(func(cmd *cobra.Command, store *storage.Store) error {
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
		return nil
	}),
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cachePurgeCmd, cacheClearCmd)
}

func withStore(fn func(cmd *cobra.Command, store *storage.Store) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ttl := cfg.Cache.TTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		store, err := storage.NewStore(cfg.Cache.Path, ttl)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, store)
	}
}
