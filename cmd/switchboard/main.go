package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "switchboard",
		Short: "Mirror eight output lines to every connected observer",
		Long: `switchboard drives eight digital output lines and keeps every
connected observer in sync with them.

The controller (serve) owns the lines. Observers (watch) connect over
WebSocket, receive one snapshot, then a delta for every accepted toggle.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		watchCmd(),
		statusCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
