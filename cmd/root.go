// Package cmd contains the CLI entry point of the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "github-star-growth",
	Short: "Ranks JavaScript/TypeScript repositories by star growth per category.",
	Long: `github-star-growth searches GitHub for JavaScript and TypeScript repositories in
a fixed list of categories, estimates how many stars each one had at a reference
date and ranks them by absolute and relative star growth.

It takes no flags or arguments. Configuration comes from the environment
(GITHUB_TOKEN and the STARGROWTH_* variables), optionally seeded from a .env file.
Results are written as category-<name>.json files and all.json.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runGrowth,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
