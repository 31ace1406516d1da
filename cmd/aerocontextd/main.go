package main

import (
	"fmt"
	"os"

	"github.com/skylane-ai/aerocontext/internal/cli"
	"github.com/skylane-ai/aerocontext/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aerocontextd",
		Short: "Aerocontext daemon and admin CLI",
		Long:  "Aerocontext daemon for running the retrieval API server and managing the procedures corpus",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.MigrateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
