package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/balancedesk/config"
	"github.com/target/balancedesk/internal/core"
	obserrors "github.com/target/balancedesk/internal/observability/errors"
	"github.com/target/balancedesk/internal/observability/metrics"
	"github.com/target/balancedesk/internal/observability/statsd"
)

// ErrLockHeld is returned by a SweepLocker when another instance holds the lock.
var ErrLockHeld = errors.New("sweep lock held by another instance")

// SweepLocker serializes janitor passes across instances.
type SweepLocker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Artifacts core.ArtifactStore   // Required: export artifact store
	Cache     core.CacheRepository // Optional: swept when it implements core.Sweeper
	Locker    SweepLocker          // Optional: cross-instance lock; nil runs unguarded
	Config    config.ReaperConfig  // Required: reaper configuration
	Logger    *slog.Logger         // Optional: structured logger
	Metrics   statsd.Sink          // Optional: metrics sink (StatsD-compatible)
	Now       func() time.Time     // Optional: clock override for tests
}

// ReaperService is the janitor. Each pass drops expired in-memory job entries
// and deletes export artifacts older than the configured age.
type ReaperService struct {
	artifacts core.ArtifactStore
	sweeper   core.Sweeper
	locker    SweepLocker
	config    config.ReaperConfig
	logger    *slog.Logger
	metrics   statsd.Sink
	now       func() time.Time
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Artifacts == nil {
		return nil, errors.New("ArtifactStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	// Redis expires keys natively and is not a Sweeper.
	sweeper, _ := opts.Cache.(core.Sweeper)

	logger = logger.With("component", "reaper_service")
	logger.Debug("ReaperService initialized",
		"schedule", opts.Config.Schedule,
		"artifact_max_age", opts.Config.ArtifactMaxAge,
		"sweeps_cache", sweeper != nil,
		"locked", opts.Locker != nil,
	)

	return &ReaperService{
		artifacts: opts.Artifacts,
		sweeper:   sweeper,
		locker:    opts.Locker,
		config:    opts.Config,
		logger:    logger,
		metrics:   opts.Metrics,
		now:       now,
	}, nil
}

// SweepReport summarises one janitor pass.
type SweepReport struct {
	Skipped          bool
	JobsRemoved      int
	ArtifactsRemoved int
}

// RunOnce performs a single janitor pass. A pass skipped because another
// instance holds the lock is not an error.
func (s *ReaperService) RunOnce(ctx context.Context) (SweepReport, error) {
	start := s.now()

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, s.config.LockKey, s.config.LockTTL)
		if errors.Is(err, ErrLockHeld) {
			s.logger.DebugContext(ctx, "sweep skipped, lock held elsewhere")
			s.count("reaper.sweep", metrics.ResultNoop, nil)
			return SweepReport{Skipped: true}, nil
		}
		if err != nil {
			s.count("reaper.sweep", metrics.ResultError, err)
			return SweepReport{}, fmt.Errorf("obtain sweep lock: %w", err)
		}
		defer func() {
			if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
				s.logger.WarnContext(ctx, "failed to release sweep lock", "error", rerr)
			}
		}()
	}

	var report SweepReport
	if s.sweeper != nil {
		report.JobsRemoved = s.sweeper.Sweep(start)
		metrics.EmitSweep(s.metrics, metrics.SweepMetric{Operation: "jobs", Count: report.JobsRemoved})
	}

	cutoff := start.Add(-s.config.ArtifactMaxAge)
	removed, err := s.artifacts.DeleteOlderThan(ctx, cutoff)
	report.ArtifactsRemoved = removed
	metrics.EmitSweep(s.metrics, metrics.SweepMetric{Operation: "artifacts", Count: removed, Err: err})

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	} else if report.JobsRemoved+report.ArtifactsRemoved == 0 {
		result = metrics.ResultNoop
	}
	s.count("reaper.sweep", result, err)
	if s.metrics != nil {
		s.metrics.Timing("reaper.sweep_duration", s.now().Sub(start), map[string]string{"result": result})
	}

	if err != nil {
		return report, fmt.Errorf("delete old artifacts: %w", err)
	}
	if report.JobsRemoved+report.ArtifactsRemoved > 0 {
		s.logger.InfoContext(ctx, "sweep finished",
			"jobs_removed", report.JobsRemoved,
			"artifacts_removed", report.ArtifactsRemoved,
			"artifact_cutoff", cutoff,
		)
	}
	return report, nil
}

func (s *ReaperService) count(name, result string, err error) {
	if s.metrics == nil {
		return
	}
	tags := map[string]string{"result": result}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
	s.metrics.Count(name, 1, tags)
}
