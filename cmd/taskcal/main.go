// Package main implements the taskcal CLI and terminal calendar.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "taskcal: %v\n", err)
		return 1
	}
	return 0
}

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	store      string
	today      string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "taskcal",
		Short:         "Calendar-centric personal task manager",
		Long:          "taskcal keeps dated tasks with priorities and repeat rules and shows them\nin a day, week or month calendar. Without a subcommand it opens the\ncalendar when attached to a terminal and prints today's agenda otherwise.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return runTUI(cmd, flags)
			}
			return runList(cmd, flags, listOptions{})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/taskcal/config.toml)")
	pf.StringVar(&flags.store, "store", "", "storage backend: json, sqlite or postgres")
	pf.StringVar(&flags.today, "today", "", "treat this date (YYYY-MM-DD) as today")

	root.AddCommand(
		newTUICmd(flags),
		newAddCmd(flags),
		newListCmd(flags),
		newShowCmd(flags),
		newEditCmd(flags),
		newDoneCmd(flags),
		newRemoveCmd(flags),
		newMonthCmd(flags),
		newRemindCmd(flags),
	)
	return root
}
