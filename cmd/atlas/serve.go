package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/metalagman/atlas/internal/batch"
	"github.com/metalagman/atlas/internal/config"
	"github.com/metalagman/atlas/internal/pipeline"
	"github.com/metalagman/atlas/internal/schedule"
	"github.com/metalagman/atlas/internal/snapshot"
	"github.com/metalagman/atlas/internal/web"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve the run dashboard and re-run the document on a schedule",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			return runApp(cmd.Context(), newServeApp(cfg))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides serve.addr)")
	return cmd
}

func newServeApp(cfg config.Config, opts ...fx.Option) *fx.App {
	base := []fx.Option{
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(
			newServeRunner,
			web.NewServer,
			newDashboard,
			newScheduler,
		),
		fx.Invoke(registerDashboard, registerScheduler),
	}
	if cfg.Serve.ShutdownTimeout > 0 {
		base = append(base, fx.StopTimeout(cfg.Serve.ShutdownTimeout))
	}
	return fx.New(append(base, opts...)...)
}

// runApp starts app and blocks until ctx is done or fx receives a shutdown signal.
func runApp(ctx context.Context, app *fx.App) error {
	if err := app.Err(); err != nil {
		return err
	}
	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		log.Info().Str("signal", sig.Signal.String()).Msg("shutting down")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()
	return app.Stop(stopCtx)
}

func newServeRunner(cfg config.Config) (*batch.Runner, error) {
	ev, err := cfg.Evaluator()
	if err != nil {
		return nil, err
	}
	return &batch.Runner{
		Pipeline:    pipeline.New(ev),
		Store:       snapshot.NewStore(cfg.Output.RunsDir),
		Parallelism: cfg.Run.Parallelism,
	}, nil
}

// dashboard is the HTTP server of the web UI. Addr is known after start.
type dashboard struct {
	srv *http.Server

	mu   sync.Mutex
	addr net.Addr
}

func newDashboard(cfg config.Config, ws *web.Server) *dashboard {
	return &dashboard{srv: &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           ws.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

func (d *dashboard) Addr() net.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

func registerDashboard(lc fx.Lifecycle, d *dashboard) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", d.srv.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", d.srv.Addr, err)
			}
			d.mu.Lock()
			d.addr = ln.Addr()
			d.mu.Unlock()
			log.Info().Str("addr", ln.Addr().String()).Msg("dashboard listening")
			go func() {
				if err := d.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("dashboard stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return d.srv.Shutdown(ctx)
		},
	})
}

// newScheduler returns nil when serve.schedule is empty.
func newScheduler(cfg config.Config, runner *batch.Runner) (*schedule.Scheduler, error) {
	if cfg.Serve.Schedule == "" {
		return nil, nil
	}
	document := cfg.Serve.Document
	if document == "" {
		document = cfg.Input.Document
	}
	policy := snapshot.RetentionPolicy{KeepLast: cfg.Retention.KeepLast, KeepDays: cfg.Retention.KeepDays}
	return schedule.New(cfg.Serve.Schedule, func(ctx context.Context) {
		scheduledRun(ctx, runner, document, policy)
	})
}

func scheduledRun(ctx context.Context, runner *batch.Runner, document string, policy snapshot.RetentionPolicy) {
	out := runner.RunFile(ctx, document)
	if out.Err != nil {
		log.Error().Err(out.Err).Str("document", document).Msg("scheduled run failed")
	}
	if runner.Store == nil {
		return
	}
	if _, err := runner.Store.Prune(policy, false); err != nil {
		log.Warn().Err(err).Msg("prune after scheduled run")
	}
}

func registerScheduler(lc fx.Lifecycle, cfg config.Config, sched *schedule.Scheduler) {
	if sched == nil {
		return
	}
	lc.Append(fx.StartStopHook(
		func() {
			log.Info().Str("schedule", cfg.Serve.Schedule).Msg("scheduled runs enabled")
			sched.Start(context.Background())
		},
		sched.Stop,
	))
}
