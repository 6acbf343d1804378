package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "stvm",
	Short: "IEC 61131-3 Structured Text bytecode compiler and scan VM",
	Long: `stvm compiles Structured Text programs (as a JSON AST fixture, see
"stvm compile") to the container bytecode format, and runs or inspects
compiled containers against a scan-based virtual machine.

This CLI exists to exercise the compiler and VM end to end; the language
front end (lexer/parser) is out of scope for this module.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
