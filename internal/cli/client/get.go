package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a document by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/v1/documents/" + id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("ID: %s\n", doc.ID)
		fmt.Printf("Title: %s\n", doc.DisplayName)
		fmt.Printf("Status: %s\n", doc.Status)
		fmt.Printf("Size: %d chars\n", doc.Size)
		if doc.Chapter != "" {
			fmt.Printf("Chapter: %s\n", doc.Chapter)
		}
		if doc.Section != "" {
			fmt.Printf("Section: %s\n", doc.Section)
		}
		if len(doc.Tags) > 0 {
			fmt.Printf("Tags: %s\n", strings.Join(doc.Tags, ", "))
		}
		if doc.Summary != "" {
			fmt.Printf("Summary: %s\n", doc.Summary)
		}
	}

	return nil
}
