package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"typedsql/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "expecttype",
	Short: "Verify type expectations written in Go comments",
	Long: `expecttype checks // $ExpectType, // $ExpectError, // $ExpectTypeSnapshot
and // ^? assertions against the Go type checker and can repair stale ones`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errAssertionsFailed makes the process exit with status 1 without
// printing anything beyond the report.
var errAssertionsFailed = errors.New("assertions failed")

// main registers subcommands and persistent flags, then executes the root
// command. Any error exits with status 1.
func main() {
	// Версия для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)

	registerGlobalFlags(rootCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errAssertionsFailed) {
			fmt.Fprintf(os.Stderr, "expecttype: %v\n", err)
		}
		os.Exit(1)
	}
}

// registerGlobalFlags adds the persistent flags every subcommand reads.
func registerGlobalFlags(root *cobra.Command) {
	// Глобальные флаги
	root.PersistentFlags().String("color", "", "colorize output (auto|on|off); overrides the config file")
	root.PersistentFlags().Bool("timings", false, "show timing information")
	root.PersistentFlags().Int("max-diagnostics", 100, "maximum number of failures to print")
	root.PersistentFlags().String("config", "", "path to "+configFileHint+" (default: search upwards)")
	root.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	root.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	root.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	root.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	root.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	root.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
