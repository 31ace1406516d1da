package admin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skylane-ai/aerocontext/internal/config"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.HasDatabase() {
				return fmt.Errorf("AEROCONTEXT_DATABASE_URL is required")
			}
			return runMigrations(cfg.DatabaseURL)
		},
	}
}
