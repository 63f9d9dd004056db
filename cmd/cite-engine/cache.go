package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-engine/internal/papercache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge the paper search cache",
	Long: `Cache operates on the SQLite paper search cache configured by
cache.papers_path. The cache stores paper source responses per term; it never
stores essays or citation results.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openPaperCache()
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("path:    %s\n", cfg.Cache.PapersPath)
		fmt.Printf("ttl:     %v\n", cfg.Cache.PapersTTL)
		fmt.Printf("entries: %d (%d expired)\n", st.Entries, st.Expired)
		fmt.Printf("papers:  %d\n", st.Papers)
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries (or all with --all)",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		store, err := openPaperCache()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Purge(context.Background(), all)
		if err != nil {
			return err
		}
		fmt.Printf("purged %d entries\n", n)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().Bool("all", false, "delete every entry, not only expired ones")

	cacheCmd.AddCommand(cacheStatsCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openPaperCache() (*papercache.Store, error) {
	if cfg.Cache.PapersPath == "" {
		return nil, fmt.Errorf("no paper cache configured (set cache.papers_path)")
	}
	return papercache.NewStore(cfg.Cache.PapersPath, cfg.Cache.PapersTTL)
}
