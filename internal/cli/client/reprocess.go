package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ReprocessCmd creates the reprocess command.
func ReprocessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <id>",
		Short: "Queue a document for re-chunking and re-embedding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClient(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Post("/v1/documents/"+args[0]+"/reprocess", nil); err != nil {
				return fmt.Errorf("failed to queue reprocess: %w", err)
			}

			fmt.Printf("Queued document for reprocessing: %s\n", args[0])
			return nil
		},
	}
}
