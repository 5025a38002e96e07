// Package cmd implements the minivm command-line front end: a cobra root
// command with a single "run" subcommand, generalizing the teacher's
// flag-driven HandleCli into a cobra command tree the way mabhi256-jdiag's
// cmd/root.go structures jdiag's subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "minivm",
	Short: "A minimal stack-oriented bytecode interpreter",
	Long:  "minivm loads classes from a directory or jar and runs a class's main2 entry point.",
}

// Execute runs the command tree, exiting with status 1 on any error that
// escapes a subcommand before the subcommand had a chance to choose its
// own exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
