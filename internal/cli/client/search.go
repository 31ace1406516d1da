package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query      string  `json:"query"`
	Limit      int     `json:"limit,omitempty"`
	Threshold  float64 `json:"threshold,omitempty"`
	VectorOnly bool    `json:"vector_only,omitempty"`
}

// SearchResult represents a ranked snippet.
type SearchResult struct {
	Text     string `json:"text"`
	Metadata struct {
		ID            string `json:"id"`
		Title         string `json:"title"`
		Type          string `json:"type"`
		ChapterNumber string `json:"chapter_number"`
		SectionNumber string `json:"section_number"`
		URL           string `json:"url,omitempty"`
	} `json:"metadata"`
	Similarity   float64 `json:"similarity"`
	VectorScore  float64 `json:"vector_score"`
	LexicalScore float64 `json:"lexical_score"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
	Cached  bool           `json:"cached"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		limit      int
		threshold  float64
		vectorOnly bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the procedures corpus",
		Long:  "Runs a hybrid vector and keyword search over the indexed procedures corpus.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], limit, threshold, vectorOnly, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum similarity score in [0,1]")
	cmd.Flags().BoolVar(&vectorOnly, "vector-only", false, "Skip keyword ranking and use raw vector similarity")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, limit int, threshold float64, vectorOnly, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	req := SearchRequest{
		Query:      query,
		Limit:      limit,
		Threshold:  threshold,
		VectorOnly: vectorOnly,
	}

	resp, err := api.Post("/v1/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(searchResp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	cached := ""
	if searchResp.Cached {
		cached = " (cached)"
	}
	fmt.Printf("Found %d results%s:\n\n", searchResp.Count, cached)
	for i, result := range searchResp.Results {
		fmt.Printf("%d. %s (%.2f)\n", i+1, result.Metadata.Title, result.Similarity)
		text := result.Text
		if len(text) > 160 {
			text = text[:157] + "..."
		}
		fmt.Printf("   %s\n", text)
		if result.Metadata.ChapterNumber != "" {
			fmt.Printf("   Chapter %s, Section %s\n", result.Metadata.ChapterNumber, result.Metadata.SectionNumber)
		}
		fmt.Printf("   ID: %s\n", result.Metadata.ID)
		if i < len(searchResp.Results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
