// Package main provides the CLI entry point for cadence.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName    = "cadence"
	appVersion = "0.1.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Frame playback engine",
		Long: `cadence drives frame playback: it renders frames ahead of the playhead on a
pool of workers, delivers them in sequence order and paces delivery to a
target frame rate.

The play command runs a session against a synthetic renderer so the engine
can be exercised and measured without a real image pipeline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newPlayCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, appVersion)
		},
	}
}
