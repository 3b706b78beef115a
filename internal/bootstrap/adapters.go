package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/balancedesk/internal/adapters/jobrunner"
	"github.com/target/balancedesk/internal/adapters/reaper"
	"github.com/target/balancedesk/internal/service"
)

// RunJobRunner drives the in-process worker pool until ctx is cancelled.
func RunJobRunner(ctx context.Context, runner *jobrunner.Runner) error {
	if runner == nil {
		return nil
	}
	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("run job runner: %w", err)
	}
	return nil
}

// ReaperConfig contains configuration for reaper.
type ReaperConfig struct {
	Reaper   *service.ReaperService
	Schedule string
	Logger   *slog.Logger
}

// RunReaper starts the reaper service.
func RunReaper(ctx context.Context, cfg ReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		Reaper:   cfg.Reaper,
		Schedule: cfg.Schedule,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return fmt.Errorf("create reaper runner: %w", err)
	}

	return runner.Run(ctx)
}
