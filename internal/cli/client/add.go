package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// IngestDocumentRequest represents the document ingest API request.
type IngestDocumentRequest struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Chapter     string   `json:"chapter,omitempty"`
	Section     string   `json:"section,omitempty"`
	Type        string   `json:"type,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		file    string
		id      string
		title   string
		docType string
		summary string
		chapter string
		section string
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Ingest a document from stdin or file",
		Long: `Ingest a procedure document from JSON input (stdin or file) or plain text with flags.

Examples:
  # Add from JSON on stdin
  echo '{"id":"doc-1","display_name":"ATC Procedures","content":"..."}' | aeroctx add

  # Add from a JSON file
  aeroctx add --file document.json

  # Add a plain text file with flags
  aeroctx add --file chapter4.txt --id faa-7110-65-ch4 --title "Chapter 4: IFR"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAdd(cmd, file, id, title, docType, summary, chapter, section, tags, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (JSON or plain text)")
	cmd.Flags().StringVar(&id, "id", "", "Document ID (required for plain text input)")
	cmd.Flags().StringVar(&title, "title", "", "Display name (required for plain text input)")
	cmd.Flags().StringVarP(&docType, "type", "t", "", "Procedure type (e.g. approach, departure, emergency)")
	cmd.Flags().StringVar(&summary, "summary", "", "Summary (optional)")
	cmd.Flags().StringVar(&chapter, "chapter", "", "Chapter number")
	cmd.Flags().StringVar(&section, "section", "", "Section number")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")

	return cmd
}

func runAdd(cmd *cobra.Command, file, id, title, docType, summary, chapter, section string, tags []string, outputJSON bool) error {
	api, err := NewAPIClient(cmd)
	if err != nil {
		return err
	}

	// Read input
	var input []byte
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	if len(input) == 0 {
		return fmt.Errorf("no input provided")
	}

	var req IngestDocumentRequest
	if isJSONInput(input) {
		if err := json.Unmarshal(input, &req); err != nil {
			return fmt.Errorf("failed to parse JSON input: %w", err)
		}
	} else {
		// Treat as plain document text
		if id == "" {
			return fmt.Errorf("--id is required when adding plain text content")
		}
		if title == "" {
			return fmt.Errorf("--title is required when adding plain text content")
		}
		req.Content = string(input)
	}

	// Override with flags if provided
	if id != "" {
		req.ID = id
	}
	if title != "" {
		req.DisplayName = title
	}
	if docType != "" {
		req.Type = docType
	}
	if summary != "" {
		req.Summary = summary
	}
	if chapter != "" {
		req.Chapter = chapter
	}
	if section != "" {
		req.Section = section
	}
	if len(tags) > 0 {
		req.Tags = tags
	}

	// Validate
	if req.ID == "" {
		return fmt.Errorf("id is required")
	}
	if req.DisplayName == "" {
		return fmt.Errorf("display_name is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("content is required")
	}

	resp, err := api.Post("/v1/documents", req)
	if err != nil {
		return fmt.Errorf("failed to ingest document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Ingested document: %s\n", doc.ID)
		fmt.Printf("Title: %s\n", doc.DisplayName)
		fmt.Printf("Status: %s\n", doc.Status)
	}

	return nil
}

func isJSONInput(input []byte) bool {
	s := strings.TrimSpace(string(input))
	return len(s) > 0 && s[0] == '{'
}
