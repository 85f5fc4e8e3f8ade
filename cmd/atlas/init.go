package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/metalagman/atlas/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const sampleDocument = `{
  "emails": [
    {
      "date": "2024-05-02",
      "subject": "HVAC units",
      "body": "Vendor confirmed a two week delay on rooftop HVAC shipment."
    },
    {
      "date": "2024-05-03",
      "subject": "Weekly sync",
      "body": "Minutes from the owner meeting are attached."
    }
  ],
  "site_logs": [
    {
      "log_date": "2024-05-04",
      "description": "Worker observed without harness on Level 3 edge, PPE violation recorded."
    }
  ],
  "inspection_reports": [
    {
      "date": "2024-05-06",
      "area": "Level 2 rebar",
      "status": "Fail",
      "comments": "Missing bonding at column C4."
    },
    {
      "date": "2024-05-06",
      "area": "Footings",
      "status": "Pass",
      "comments": "Approved for pour."
    }
  ]
}
`

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "init",
		Short:        "Initialize an atlas project",
		Long:         "Initialize an atlas project by creating the .atlas directory, a default config and a sample document.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return err
			}
			if err := initProject(root); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "atlas initialized successfully")
			return nil
		},
	}
}

func initProject(root string) error {
	cfg := config.Default()
	atlasDir := filepath.Join(root, config.DirName)
	log.Info().Str("dir", atlasDir).Msg("creating atlas directory")
	if err := os.MkdirAll(filepath.Join(root, cfg.Output.RunsDir), 0o755); err != nil {
		return fmt.Errorf("create runs dir: %w", err)
	}

	configPath := filepath.Join(root, config.DefaultPath)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := writeIfMissing(configPath, data); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := writeIfMissing(filepath.Join(root, cfg.Input.Document), []byte(sampleDocument)); err != nil {
		return fmt.Errorf("write sample document: %w", err)
	}
	return nil
}

func writeIfMissing(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		log.Info().Str("path", path).Msg("already exists, skipping")
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	log.Info().Str("path", path).Msg("writing")
	return os.WriteFile(path, data, 0o644)
}
