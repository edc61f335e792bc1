package cli

import (
	"github.com/spf13/cobra"

	"github.com/nile-security/nile/internal/nile/setup"
)

var (
	initConfig string
	initDryRun bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard for a new NILE deployment",
	Long: `Automates the NILE onboarding process:

  1. Validates block explorer API access
  2. Writes the service config file (nile.yml)
  3. Runs database migrations
  4. Sends a test message to the Discord webhooks
  5. Optionally syncs the vulnerability signature database

Use --dry-run to preview changes without executing them.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initConfig, "config", "c", "nile.yml", "Path to write the config file")
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "Preview changes without executing")
}

func runInit(cmd *cobra.Command, args []string) error {
	wiz := setup.NewWizard(initConfig, initDryRun)
	return wiz.Run(cmd.Context())
}
