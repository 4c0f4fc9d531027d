package main

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "vibeusage"
	version = "v0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	root := newRootCmd()
	err := root.Execute()
	asJSON, _ := root.PersistentFlags().GetBool("json")
	if err != nil {
		writeError(os.Stderr, asJSON, err)
		os.Exit(exitCodeForError(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     appName,
		Short:   "Track usage across AI provider accounts",
		Version: version,
		Long: `vibeusage aggregates usage and quota data across AI provider accounts
that don't expose a unified usage API, trying multiple fetch strategies
per provider and falling back to cached data when a provider is down
or being rate-limited.`,
		RunE: runDefaultEntry,
	}

	root.PersistentFlags().String("config", "", "path to config.toml (defaults to the user config directory)")
	root.PersistentFlags().Bool("json", false, "emit machine-readable JSON instead of a terminal report")
	root.PersistentFlags().Bool("no-color", false, "disable ANSI color in terminal output")

	root.AddCommand(
		newFetchCmd(),
		newShowCmd(),
		newGateCmd(),
		newCacheCmd(),
		newMonitorCmd(),
	)

	return root
}

// runDefaultEntry runs with no subcommand: a non-TTY invocation is
// treated as a usage error (there is no interactive fallback to offer
// automation), a TTY invocation runs a one-shot fetch-and-display.
func runDefaultEntry(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("vibeusage requires a subcommand when not running in a terminal; try: vibeusage fetch --json")
	}
	return runFetch(cmd, nil)
}
