package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/railctl/internal/cli"
	"github.com/example/railctl/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "railctl",
		Short:   "railctl - railway traffic state and advisory engine",
		Version: version.String(),
		Long: `railctl aggregates live train and section updates into network KPIs and
raises recommendations and automated decisions for traffic operators.`,
	}
	cli.AddGlobalFlags(rootCmd)

	// Engine
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.ReplayCmd())
	rootCmd.AddCommand(cli.StatusCmd())

	// Advisory lifecycle
	rootCmd.AddCommand(cli.RecommendationCmd())
	rootCmd.AddCommand(cli.DecisionCmd())
	rootCmd.AddCommand(cli.AuditCmd())

	// Setup
	rootCmd.AddCommand(cli.ConfigCmd())
	rootCmd.AddCommand(cli.DBCmd())
	rootCmd.AddCommand(cli.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
