// Package cli defines the autofix command surface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is injected at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "autofix",
	Short: "Ask questions about production logs and register fixable errors",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the autofix version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(versionCmd)
}
