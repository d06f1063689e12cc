package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/reconciler/pkg/devtools"
	"github.com/vango-dev/reconciler/pkg/metrics"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/scheduler"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var (
		addr     string
		interval time.Duration
		watch    bool
		export   string
	)

	cmd := &cobra.Command{
		Use:   "serve <scenario.yaml>",
		Short: "Replay a scenario behind the devtools inspector",
		Long: `Start the devtools inspector and replay a scenario on a live
scheduler loop, one step per interval.

Endpoints:
  /tree      published tree as JSON
  /html      published tree as HTML
  /commits   recent commits
  /ws        live commit stream
  /metrics   Prometheus metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg, err := opts.load(filepath.Dir(path))
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Devtools.Addr
			}
			logger := cfg.Logger(cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			collector := metrics.New(
				metrics.WithNamespace(cfg.Metrics.Namespace),
				metrics.WithRegistry(reg),
			)
			inspector := devtools.New(devtools.WithLogger(logger), devtools.WithGatherer(reg))
			defer inspector.Close()

			observers := []func(reconciler.CommitInfo){inspector.Observe}
			exporter, err := newExporter(export, cfg, logger)
			if err != nil {
				return err
			}
			if exporter != nil {
				observers = append(observers, exporter.Observe)
			}

			sched := scheduler.New(append(cfg.SchedulerOptions(), scheduler.WithLogger(logger))...)
			loop := scheduler.NewLoop(sched)
			recOpts := append(cfg.ReconcilerOptions(), reconciler.WithMetrics(collector))
			p := newPlayer(sched, logger, observers, recOpts...)
			if err := inspector.Track(p.root); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           inspector.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			reload := make(chan struct{}, 1)
			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return ignoreCanceled(loop.Run(gctx))
			})
			g.Go(func() error {
				logger.Info("devtools listening", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			g.Go(func() error {
				return serveScenario(gctx, loop, p, inspector, path, interval, reload, logger)
			})
			if watch {
				g.Go(func() error {
					return watchFile(gctx, path, logger, func() {
						select {
						case reload <- struct{}{}:
						default:
						}
					})
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default: devtools.addr)")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Delay between steps")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Replay again whenever the scenario file changes")
	cmd.Flags().StringVar(&export, "export", "", "Export every commit to a directory or to s3://bucket/prefix")

	return cmd
}

// serveScenario replays the scenario on the loop, then again on every
// reload signal, until ctx is done. Replay failures are logged and do not
// stop the server.
func serveScenario(ctx context.Context, loop *scheduler.Loop, p *player, inspector *devtools.Server, path string, interval time.Duration, reload <-chan struct{}, logger *slog.Logger) error {
	for {
		if err := replayLive(ctx, loop, p, inspector, path, interval); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("replay failed", "scenario", path, "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-reload:
		}
	}
}

// replayLive submits the steps of the scenario at path to the loop, one
// per interval.
func replayLive(ctx context.Context, loop *scheduler.Loop, p *player, inspector *devtools.Server, path string, interval time.Duration) error {
	s, err := LoadScenario(path)
	if err != nil {
		return err
	}

	var trackErr error
	if err := loop.Call(ctx, func() {
		if p.ensureRoot() {
			trackErr = inspector.Track(p.root)
		}
	}); err != nil {
		return err
	}
	if trackErr != nil {
		return trackErr
	}

	for i, step := range s.Steps {
		var applyErr error
		if err := loop.Call(ctx, func() {
			p.drain()
			applyErr = p.apply(step)
		}); err != nil {
			return err
		}
		if applyErr != nil {
			return fmt.Errorf("%s: %w", step.Label(i), applyErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
