// Package cli implements the ezpool command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the current release version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "ezpool",
	Short: "Run a batch of tasks in serial, parallel or distributed mode",
	Long: `ezpool maps a worker over a batch of tasks with a single call contract
across three interchangeable execution modes: serial (in order, one core),
parallel (local worker goroutines), and distributed (remote worker daemons
reachable over gRPC).`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
