package main

import (
	"fmt"

	"github.com/metalagman/atlas/internal/tui"
	"github.com/spf13/cobra"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "tui [run-id]",
		Short:        "Browse a saved run in the terminal (latest by default)",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(cmd, args)
			if err != nil {
				return err
			}
			if run.Result == nil {
				return fmt.Errorf("run %s is %s: %s", run.Meta.ID, run.Meta.Status, run.Meta.Error)
			}
			return tui.Run(run.Meta, *run.Result)
		},
	}
}
