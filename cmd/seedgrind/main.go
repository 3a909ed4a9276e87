// Package main provides the entry point for the seedgrind CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/niart120/seedgrind/cmd/seedgrind/commands"
	"github.com/niart120/seedgrind/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seedgrind",
		Short: "Seedgrind - parallel initial seed search for gen 5 cartridges",
		Long: `Seedgrind exhaustively searches the (time x timer0 x vcount) keyspace
for RTC configurations that hash to a wanted initial seed.

Commands:
  search    Run a seed search over a date range`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewSearchCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "seedgrind %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
