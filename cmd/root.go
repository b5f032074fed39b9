// Package cmd provides the CLI commands for the songwriting assistant.
//
// Commands:
//   - serve: HTTP API server for the songwriting workflow
//   - version: build and configuration information
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "suno-architect",
	Short: "Suno Architect - AI songwriting studio backend",
	Long: `Suno Architect is an AI-assisted songwriting studio. It turns a
creative brief into production-ready lyrics and style prompts, critiques
and rewrites them across versions, and renders finished songs through
the Suno API.

Running without a subcommand starts the HTTP API server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe("")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
