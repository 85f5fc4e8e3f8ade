package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/metalagman/atlas/internal/report"
	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	var (
		runID string
		raw   bool
		width int
	)
	cmd := &cobra.Command{
		Use:          "ask <question>",
		Short:        "Ask about a saved run, e.g. \"any QA issues?\" or \"what's the score?\"",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ids []string
			if runID != "" {
				ids = []string{runID}
			}
			run, err := loadRun(cmd, ids)
			if err != nil {
				return err
			}
			if run.Result == nil {
				return fmt.Errorf("run %s is %s: %s", run.Meta.ID, run.Meta.Status, run.Meta.Error)
			}

			md, err := report.Ask(strings.Join(args, " "), *run.Result)
			if errors.Is(err, report.ErrUnclearQuestion) {
				fmt.Fprintln(cmd.OutOrStdout(), err.Error())
				return nil
			}
			if err != nil {
				return err
			}
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
	cmd.Flags().StringVar(&runID, "run", "", "run id (latest by default)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print plain markdown")
	cmd.Flags().IntVar(&width, "width", report.DefaultWidth, "word-wrap width")
	return cmd
}
