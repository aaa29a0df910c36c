package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orchid",
	Short: "Natural-language task workflow coordinator",
	Long: `Orchid turns a natural-language request into an executable workflow:
it classifies the request, decomposes it into domain-specific subtasks,
builds the dependency graph, plans parallelizable execution steps, and
dispatches each subtask to a worker while tracking state on an event bus.

Core capabilities:
- Keyword-based complexity and domain classification
- Template-driven decomposition into phase subtasks
- Dependency graph with cycle detection and parallel grouping
- Critical path and duration estimation
- Claude-backed or deterministic workers`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
