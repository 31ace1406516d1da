package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// CacheStats mirrors the cache stats API response.
type CacheStats struct {
	SearchEntries      int `json:"search_entries"`
	ResponseEntries    int `json:"response_entries"`
	DocumentSetEntries int `json:"document_set_entries"`
	HistoryEntries     int `json:"history_entries"`
}

// CacheCmd creates the cache command group.
func CacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage server-side caches",
	}

	cmd.AddCommand(cacheStatsCmd())
	cmd.AddCommand(cacheClearCmd())

	return cmd
}

func cacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache tier sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClient(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/v1/cache/stats")
			if err != nil {
				return fmt.Errorf("failed to get cache stats: %w", err)
			}

			var stats CacheStats
			if err := json.Unmarshal(resp.Data, &stats); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				output, _ := json.MarshalIndent(stats, "", "  ")
				fmt.Println(string(output))
				return nil
			}

			fmt.Printf("Search entries:       %d\n", stats.SearchEntries)
			fmt.Printf("Response entries:     %d\n", stats.ResponseEntries)
			fmt.Printf("Document set entries: %d\n", stats.DocumentSetEntries)
			fmt.Printf("Query history:        %d\n", stats.HistoryEntries)
			return nil
		},
	}
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear every cache tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/v1/cache"); err != nil {
				return fmt.Errorf("failed to clear caches: %w", err)
			}

			fmt.Println("Caches cleared.")
			return nil
		},
	}
}
