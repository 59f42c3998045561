package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/apifykit/version"
)

func newVersionCommand(a *app) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// version needs no config or credentials.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return checkOutput(a.flags.output)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			if short {
				_, err := fmt.Fprintln(a.stdout, version.GetShortVersion())
				return err
			}
			return a.print(version.GetVersionInfo())
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version and commit")
	return cmd
}
