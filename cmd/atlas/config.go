package main

import (
	"github.com/metalagman/atlas/internal/config"
	"github.com/metalagman/atlas/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadConfig reads the file named by --config. The default path may be absent;
// an explicitly given one must exist.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := viper.GetString("config")
	required := path != "" && path != config.DefaultPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(viper.New(), path, required)
	if err != nil {
		return config.Config{}, err
	}
	if flag := cmd.Flags().Lookup("log-format"); (flag == nil || !flag.Changed) && cfg.Log.Format != "" {
		logging.Init(debug, cfg.Log.Format)
	}
	return cfg, nil
}
