// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/keegan31/GitScan/internal/gateway"
	"github.com/keegan31/GitScan/internal/report"
	"github.com/keegan31/GitScan/internal/usecase"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scans a GitHub account and prints an OSINT report",
	Long: `Scans every public repository of the target account for personal e-mail
addresses (commit metadata and file contents), then collects the profile,
public events, organizations and gists. Prints a console summary and can
optionally save a full report to <username>.txt.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		flags := 0
		if verbose {
			flags = log.LstdFlags
		}
		logger := log.New(os.Stderr, "", flags)

		user, _ := cmd.Flags().GetString("user")
		token, _ := cmd.Flags().GetString("token")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		output, _ := cmd.Flags().GetBool("output")
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		if token == "" {
			fmt.Fprintln(os.Stderr, "Error: provide a token via --token or the GITHUB_TOKEN environment variable.")
			os.Exit(1)
		}

		fmt.Println(report.Banner())

		githubGateway, err := gateway.NewGitHubGateway(token, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		scanner := usecase.NewScanner(githubGateway, logger, concurrency)

		findings := scanner.Run(ctx, user)
		report.Render(os.Stdout, findings)

		if output {
			filename := user + ".txt"
			if err := report.Save(findings, filename); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to save report: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("\nReport saved to: %s\n", filename)
		}
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("user", "u", "", "Target GitHub user name (required)")
	scanCmd.Flags().StringP("token", "t", "", "GitHub personal access token (defaults to GITHUB_TOKEN)")
	scanCmd.Flags().IntP("concurrency", "c", usecase.DefaultConcurrency, "Number of concurrent repository scans")
	scanCmd.Flags().BoolP("output", "o", false, "Save the full report to <username>.txt")
	scanCmd.MarkFlagRequired("user")
}
