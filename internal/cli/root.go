// Package cli implements the CoinQuest command-line interface using Cobra.
// Each subcommand opens the local profile, applies one operation and exits;
// `serve` runs the long-lived HTTP daemon.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coinquest",
	Short: "CoinQuest: progression engine for your finances",
	Long: `CoinQuest turns everyday money habits into levels, streaks,
achievements, missions and unlockable rewards.

Run 'coinquest serve' for the local API, or drive the profile directly
from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
