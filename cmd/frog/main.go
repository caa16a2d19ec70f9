// Command frog loads and runs FROG bytecode modules.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "frog",
	Short: "FROG bytecode VM",
	Long:  `frog loads, validates, and executes .frogc bytecode modules.`,
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to frog.toml (defaults to ./frog.toml if present)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
