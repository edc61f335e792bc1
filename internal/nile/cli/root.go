// Package cli implements the trust-scoring commands of the nile CLI.
package cli

import (
	"github.com/spf13/cobra"
)

// RootCmd is the trust subcommand of the nile CLI.
var RootCmd = &cobra.Command{
	Use:   "trust",
	Short: "NILE trust scoring — evaluate smart contracts on 4 dimensions",
	Long: `NILE scores a smart contract's trustworthiness on 4 dimensions:

  Name      — Is the contract's identity verifiable?
  Image     — What does its security posture look like today?
  Likeness  — How much does it resemble known vulnerable code?
  Essence   — Is the code itself sound?

Use trust to score evidence files locally, run the scoring service,
and onboard a new deployment.`,
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(scoreCmd)
	RootCmd.AddCommand(serveCmd)
	RootCmd.AddCommand(initCmd)
}
