// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gitscan",
	Short: "An OSINT tool to discover e-mail addresses tied to a GitHub account.",
	Long: `gitscan investigates a public GitHub account: it enumerates every public
repository, mines commit metadata and file contents for personal e-mail
addresses, and collects the profile, organizations, recent activity and
gists into a single report.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging (adds timestamps)")
}
