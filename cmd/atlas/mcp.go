package main

import (
	"github.com/metalagman/atlas/internal/batch"
	"github.com/metalagman/atlas/internal/mcp"
	"github.com/metalagman/atlas/internal/pipeline"
	"github.com/metalagman/atlas/internal/snapshot"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "mcp",
		Short:        "Serve the pipeline as MCP tools over stdio",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ev, err := cfg.Evaluator()
			if err != nil {
				return err
			}
			runner := &batch.Runner{Pipeline: pipeline.New(ev), Parallelism: cfg.Run.Parallelism}
			if cfg.Output.Save {
				runner.Store = snapshot.NewStore(cfg.Output.RunsDir)
			}
			log.Info().Msg("serving MCP over stdio")
			return mcp.NewServer(runner, version).Run(cmd.Context())
		},
	}
}
