package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconciler/internal/config"
	"github.com/vango-dev/reconciler/pkg/reconciler"
	"github.com/vango-dev/reconciler/pkg/render"
	"github.com/vango-dev/reconciler/pkg/scheduler"
	"github.com/vango-dev/reconciler/pkg/snapshot"
)

func runCmd(opts *rootOptions) *cobra.Command {
	var (
		watch  bool
		export string
	)

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a scenario and print every commit",
		Long: `Replay the steps of a scenario against an in-memory render target.

For every step the command prints the commits it produced, the mutations
each commit applied and the resulting HTML.

Examples:
  fiberctl run examples/reorder.yaml
  fiberctl run --watch examples/reorder.yaml
  fiberctl run --export ./snapshots examples/reorder.yaml
  fiberctl run --export s3://ui-commits/reorder examples/reorder.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg, err := opts.load(filepath.Dir(path))
			if err != nil {
				return err
			}
			logger := cfg.Logger(cmd.ErrOrStderr())

			var observers []func(reconciler.CommitInfo)
			exporter, err := newExporter(export, cfg, logger)
			if err != nil {
				return err
			}
			if exporter != nil {
				observers = append(observers, exporter.Observe)
			}

			w := cmd.OutOrStdout()
			replay := func() error {
				s, err := LoadScenario(path)
				if err != nil {
					return err
				}
				return replayScenario(w, s, cfg, logger, scheduler.NewRealClock(), observers...)
			}

			err = replay()
			if !watch {
				return err
			}
			if err != nil {
				logger.Error("replay failed", "scenario", path, "error", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger.Info("watching scenario", "path", path)
			return watchFile(ctx, path, logger, func() {
				if err := replay(); err != nil {
					logger.Error("replay failed", "scenario", path, "error", err)
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Replay again whenever the scenario file changes")
	cmd.Flags().StringVar(&export, "export", "", "Export every commit to a directory or to s3://bucket/prefix")

	return cmd
}

// replayScenario runs every step of s on a fresh reconciler and writes a
// report to w.
func replayScenario(w io.Writer, s *Scenario, cfg *config.Config, logger *slog.Logger, clock scheduler.Clock, observers ...func(reconciler.CommitInfo)) error {
	schedOpts := append(cfg.SchedulerOptions(),
		scheduler.WithClock(clock),
		scheduler.WithLogger(logger),
	)
	sched, _ := scheduler.NewManualHost(schedOpts...)
	p := newPlayer(sched, logger, observers, cfg.ReconcilerOptions()...)

	fmt.Fprintf(w, "== %s (%d steps)\n", s.Name, len(s.Steps))
	for i, step := range s.Steps {
		label := step.Label(i)
		if err := p.apply(step); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		slices := sched.RunUntilIdle()
		commits, errs := p.drain()
		if len(errs) > 0 {
			return fmt.Errorf("%s: %w", label, errors.Join(errs...))
		}

		fmt.Fprintf(w, "-- %s: %d commit(s), %d slice(s)\n", label, len(commits), slices)
		for _, c := range commits {
			info(w, "commit lanes=%s placements=%d updates=%d deletions=%d",
				c.info.Lanes, c.info.Placements, c.info.Updates, c.info.Deletions)
			for _, op := range c.ops {
				info(w, "  %s", op)
			}
		}
		html := render.HTML(p.container.Snapshot())
		if html == "" {
			html = "(empty)"
		}
		info(w, "%s", html)
	}
	return nil
}

// newExporter builds a snapshot exporter for target, which is a directory
// or an s3://bucket/prefix URL. An empty target falls back to the snapshot
// section of the configuration. It returns nil when nothing is configured.
func newExporter(target string, cfg *config.Config, logger *slog.Logger) (*snapshot.Exporter, error) {
	var sinks []snapshot.Sink

	dir := cfg.Snapshot.Dir
	bucket, prefix := cfg.Snapshot.S3Bucket, cfg.Snapshot.S3Prefix
	if target != "" {
		dir, bucket = "", ""
		if rest, ok := strings.CutPrefix(target, "s3://"); ok {
			bucket, prefix, _ = strings.Cut(rest, "/")
			if bucket == "" {
				return nil, fmt.Errorf("export target %q has no bucket", target)
			}
		} else {
			dir = target
		}
	}

	if dir != "" {
		fs, err := snapshot.NewFileSink(dir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}
	if bucket != "" {
		client := snapshot.NewS3Client(cfg.Snapshot.S3Region, cfg.Snapshot.S3Endpoint)
		sinks = append(sinks, snapshot.NewS3Sink(client, bucket, prefix))
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	return snapshot.NewExporter(logger, sinks...), nil
}
