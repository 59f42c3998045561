package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/apifykit/observability"
	"github.com/kbukum/apifykit/version"
)

func newHealthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable and accepts the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.connection()
			if err != nil {
				return err
			}
			sh := observability.CheckAll(cmd.Context(), a.cfg.Name, version.Version, conn)
			if err := a.print(sh); err != nil {
				return err
			}
			if !sh.IsUp() {
				return errReported
			}
			return nil
		},
	}
}
