package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
)

var rootCmd = &cobra.Command{
	Use:   "passwords",
	Short: "passwords - persona-scoped credential storage service",
	Long: `passwords stores name, URI, username and password records for personas.

Every call is authenticated, and access to a persona is checked against the
persona service before any credential is read or written.

Usage:
  passwords <command> [flags]

Available Commands:
  serve      Run the HTTP API
  migrate    Apply database migrations and exit

Configuration is read from PASSWORDS_* environment variables.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}
