// Package cli implements the suitectl command tree.
//
// suitectl is a thin REST client over the suite-runner server. Every command
// resolves the server address from the --server flag or the SUITE_SERVER_URL
// environment variable and talks to the /api/v1 surface.
package cli

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-suite-runner/internal/sysutil"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "suitectl",
	Short: "Manage and run request suites from the terminal",
	Long: `suitectl is a command-line client for the suite-runner server.

Compose request lines into suites, execute them in order, and inspect
results, history and the variable vault.

Examples:
  suitectl create --title "Checkout flow"
  suitectl attach 'HTTP GET | URL https://api.example.com/users'
  suitectl run <suite-id>
  suitectl vault set base_token abc123
  suitectl history -n 5`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultServer := sysutil.FirstNonEmpty(os.Getenv("SUITE_SERVER_URL"), "http://localhost:8080")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "Base URL of the suite-runner server")

	if sysutil.IsTruthy(os.Getenv("SUITECTL_NO_COLOR")) {
		color.NoColor = true
	}
}
