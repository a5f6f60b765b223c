// Package cmd implements the CLI commands for nlfind.
package cmd

import (
	"github.com/spf13/cobra"
)

// Command group IDs for help output.
const (
	groupCore  = "core"
	groupSetup = "setup"
)

var rootCmd = &cobra.Command{
	Use:   "nlfind [flags] [query...]",
	Short: "find files by describing them",
	Long: `nlfind - natural language file search
  - describe what you want: nlfind "python files over 10MB changed this week"
  - or search directly:     nlfind --no-llm "*.py"

The query is parsed by an LLM into structured criteria, then executed
with the fastest indexing tool on the host (plocate, fd, find) with a
built-in walk as the always-available fallback.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: groupCore, Title: "Core Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}
