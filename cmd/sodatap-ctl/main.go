// Sodatap-ctl is a control utility for Sodatap water dispenser units.
//
// It talks to a unit through a BLE gateway on the local network, which
// proxies the unit's GATT characteristic over a WebSocket endpoint.
// The tool provides gateway discovery, live status readout, and direct
// control commands (dispense, temperature, hardness, calibration, PIN).
//
// Usage:
//
//	sodatap-ctl [command] [flags]
//
// See 'sodatap-ctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muellr/sodatap/internal/logging"
	"github.com/muellr/sodatap/internal/version"
)

func main() {
	logging.InitializeFromEnv()
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sodatap-ctl",
	Short: "Sodatap Unit Control Utility",
	Long: `A standalone utility for controlling Sodatap water dispenser units.

Provides gateway discovery, live status readout, and direct control
commands for dispensing, cooling temperature, water hardness,
calibration, and PIN management.

Units are reached through a BLE gateway on the local network. Gateways
are found automatically via mDNS, or specified with --gateway.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sodatap-ctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
