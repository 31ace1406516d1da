package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// DocumentAnalysis mirrors the analysis API response.
type DocumentAnalysis struct {
	DocumentID    string   `json:"document_id"`
	Size          int      `json:"size"`
	TopicCount    int      `json:"topic_count"`
	MainTopics    []string `json:"main_topics,omitempty"`
	Density       float64  `json:"density"`
	Quality       string   `json:"quality"`
	NeedsChunking bool     `json:"needs_chunking"`
	Priority      string   `json:"priority"`
}

// AnalyzeCmd creates the analyze command.
func AnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <id>",
		Short: "Show the quality analysis for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAnalyze(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runAnalyze(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/v1/documents/" + id + "/analysis")
	if err != nil {
		return fmt.Errorf("failed to analyze document: %w", err)
	}

	var analysis DocumentAnalysis
	if err := json.Unmarshal(resp.Data, &analysis); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(analysis, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Document: %s\n", analysis.DocumentID)
	fmt.Printf("Size: %d chars\n", analysis.Size)
	fmt.Printf("Quality: %s (priority: %s)\n", analysis.Quality, analysis.Priority)
	fmt.Printf("Topics: %d", analysis.TopicCount)
	if len(analysis.MainTopics) > 0 {
		fmt.Printf(" (%s)", strings.Join(analysis.MainTopics, ", "))
	}
	fmt.Println()
	fmt.Printf("Density: %.3f\n", analysis.Density)
	fmt.Printf("Needs chunking: %v\n", analysis.NeedsChunking)

	return nil
}
