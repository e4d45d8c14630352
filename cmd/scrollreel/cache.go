package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"karolbroda.com/scrollreel/internal/cache"
)

var (
	// flags for cache clear
	cacheConfirm bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "manage the rendered frame cache",
	Long:  `manage cached half-block renderings of scene frames.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show cache statistics",
	Long:  `display cache statistics including number of entries, total size, and cache location.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		frameCache, err := cache.New()
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}

		count, sizeBytes, err := frameCache.Stats()
		if err != nil {
			return fmt.Errorf("failed to get cache stats: %w", err)
		}

		fmt.Println("cache statistics:")
		fmt.Printf("  location: %s\n", frameCache.Dir())
		fmt.Printf("  entries:  %d\n", count)
		fmt.Printf("  size:     %s\n", formatBytes(sizeBytes))

		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "clear all cached frames",
	Long:  `remove every cached frame rendering. use --confirm to skip confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		frameCache, err := cache.New()
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}

		if !cacheConfirm {
			fmt.Print("are you sure you want to clear all cache? (y/n): ")
			var response string
			fmt.Scanln(&response)
			if strings.ToLower(response) != "y" && strings.ToLower(response) != "yes" {
				fmt.Println("cancelled")
				return nil
			}
		}

		if err := frameCache.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Println("cache cleared successfully")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "remove expired cache entries",
	Long:  `remove all expired cache entries to free up disk space.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		frameCache, err := cache.New()
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}

		pruned, err := frameCache.Prune()
		if err != nil {
			return fmt.Errorf("failed to prune cache: %w", err)
		}

		fmt.Printf("removed %d expired entries\n", pruned)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	cacheClearCmd.Flags().BoolVar(&cacheConfirm, "confirm", false, "skip confirmation prompt")
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
