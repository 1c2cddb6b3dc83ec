package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ksyq12/webhostinit/internal/logger"
)

var (
	jsonOutput bool
	verbose    bool
	version    = "dev"
)

// rootCmd provisions a deployment; subcommands cover diagnostics.
var rootCmd = &cobra.Command{
	Use:   "webhostinit [domain]",
	Short: "Provision a vhost deployment",
	Long: `webhostinit provisions a virtual-host deployment on this server:
it obtains a TLS certificate, creates the project directory tree, clones
the application repository, renders the nginx, PHP-FPM, and logrotate
configuration files, installs them into the system configuration
directories, and reloads the affected services.

The run is strictly sequential and stops at the first error. Completed
steps are not rolled back; re-running is safe where operations are
idempotent (directory creation), and fails loudly where they are not
(config symlinks).

Examples:
  webhostinit acme.example.com --app acme
  webhostinit shop.example.com --app shop --nginx-user www-data
  webhostinit --dry-run acme.example.com --app acme`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runProvision,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
}
