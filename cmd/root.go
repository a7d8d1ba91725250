// Package cmd implements the syncmind command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "syncmind",
	Short: "Document index and semantic search service",
	Long: `syncmind keeps an exact in-memory vector index synchronized with a
PostgreSQL document store and serves nearest-neighbor search with live
content summaries over a JSON HTTP API.

Running syncmind without a subcommand starts the HTTP server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
