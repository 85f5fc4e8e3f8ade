package main

import (
	"fmt"

	"github.com/metalagman/atlas/internal/report"
	"github.com/metalagman/atlas/internal/snapshot"
	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	var (
		raw   bool
		width int
	)
	cmd := &cobra.Command{
		Use:          "show [run-id]",
		Short:        "Render a saved run (latest by default)",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := loadRun(cmd, args)
			if err != nil {
				return err
			}
			md := report.RunMarkdown(run)
			if raw {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			out, err := report.Render(md, width)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print plain markdown")
	cmd.Flags().IntVar(&width, "width", report.DefaultWidth, "word-wrap width")
	return cmd
}

// loadRun loads args[0] or, without arguments, the newest run.
func loadRun(cmd *cobra.Command, args []string) (snapshot.Run, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return snapshot.Run{}, err
	}
	store := snapshot.NewStore(cfg.Output.RunsDir)
	if len(args) == 0 {
		return store.Latest()
	}
	return store.Load(args[0])
}
