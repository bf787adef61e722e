package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relight-dev/relight/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦═╗┌─┐┬  ┬┌─┐┬ ┬┌┬┐
  ╠╦╝├┤ │  ││ ┬├─┤ │
  ╩╚═└─┘┴─┘┴└─┘┴ ┴ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "relight",
		Short: "Server-driven reactive state for Go",
		Long: `Relight hosts hook-based reactive components on the server and
streams their views to clients over WebSocket.

  • Slot-indexed hooks: state, effects, memos, reducers, refs, context
  • One mounted component tree per client session
  • Detach and resume with pluggable session stores
  • Prometheus metrics and OpenTelemetry tracing middleware`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		initCmd(),
		checkCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
