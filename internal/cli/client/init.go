package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// InitCmd creates the init command.
func InitCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the server URL",
		Long:  "Stores the retrieval server URL in the user config directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(apiURL)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", defaultAPIURL, "Server base URL")

	return cmd
}

func runInit(apiURL string) error {
	if apiURL == "" {
		return fmt.Errorf("api-url cannot be empty")
	}

	// Verify the server is reachable before persisting
	api, err := NewAPIClientWithConfig(apiURL)
	if err != nil {
		return err
	}
	resp, err := api.Get("/health")
	if err != nil {
		return fmt.Errorf("server unreachable at %s: %w", apiURL, err)
	}

	var health map[string]string
	if err := json.Unmarshal(resp.Data, &health); err == nil && health["status"] != "ok" {
		return fmt.Errorf("unexpected health response from %s", apiURL)
	}

	if err := SaveGlobalConfig(&GlobalConfig{APIURL: apiURL}); err != nil {
		return err
	}

	configPath, _ := GetConfigPath()
	fmt.Printf("Configuration saved to %s\n", configPath)
	return nil
}
