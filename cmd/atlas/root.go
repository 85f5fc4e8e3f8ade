package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/metalagman/atlas/internal/config"
	"github.com/metalagman/atlas/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	debug     bool
	logFormat string
	rootCmd   = &cobra.Command{
		Use:   "atlas",
		Short: "atlas turns project-status documents into a routed mitigation plan",
	}
)

// Execute runs the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "log format: console or json")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		return fmt.Errorf("bind config flag: %w", err)
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := config.LoadDotEnv(wd); err != nil {
			return err
		}
		logging.Init(debug, logFormat)
		return nil
	}
	rootCmd.AddCommand(
		initCmd(),
		runCmd(),
		showCmd(),
		askCmd(),
		runsCmd(),
		serveCmd(),
		mcpCmd(),
		tuiCmd(),
		versionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
}
