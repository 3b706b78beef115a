// Package reaper runs the janitor on a cron schedule.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/target/balancedesk/internal/service"
)

// Sweeper performs one janitor pass.
type Sweeper interface {
	RunOnce(ctx context.Context) (service.SweepReport, error)
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Reaper   Sweeper // Required: the janitor pass
	Schedule string  // Required: cron spec or descriptor such as "@every 5m"
	Logger   *slog.Logger
}

// Runner triggers the janitor on its schedule until the context is cancelled.
type Runner struct {
	reaper   Sweeper
	schedule cron.Schedule
	spec     string
	logger   *slog.Logger
}

// NewRunner validates the schedule and creates a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Reaper == nil {
		return nil, errors.New("reaper is required")
	}
	sched, err := cron.ParseStandard(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse reaper schedule %q: %w", opts.Schedule, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		reaper:   opts.Reaper,
		schedule: sched,
		spec:     opts.Schedule,
		logger:   logger.With("component", "reaper_runner"),
	}, nil
}

// Run sweeps once immediately, then on every scheduled tick. Overlapping
// ticks are skipped while a pass is still running.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting reaper runner", "schedule", r.spec)

	r.tick(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(r.schedule, cron.FuncJob(func() { r.tick(ctx) }))
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()

	r.logger.Info("reaper runner stopped", "reason", ctx.Err())
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func (r *Runner) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := r.reaper.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.logger.Debug("sweep cancelled by context", "error", err)
			return
		}
		r.logger.ErrorContext(ctx, "sweep failed", "error", err)
		return
	}
	if report.Skipped {
		r.logger.DebugContext(ctx, "sweep skipped")
	}
}
