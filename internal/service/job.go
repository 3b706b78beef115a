package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/target/balancedesk/internal/core"
	"github.com/target/balancedesk/internal/domain/model"
	"github.com/target/balancedesk/internal/observability/metrics"
	"github.com/target/balancedesk/internal/observability/statsd"
)

var (
	// ErrJobNotFound is returned for ids that were never issued, were evicted or have expired.
	ErrJobNotFound = errors.New("job not found or expired")
	// ErrJobFinalized is returned when a terminal job is written again.
	ErrJobFinalized = errors.New("job already reached a terminal state")
)

const finalSuffix = ":final"

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Cache   core.CacheRepository // Required: TTL store holding job records
	TTL     time.Duration        // Required: lifetime of a job record
	Logger  *slog.Logger         // Optional: structured logger
	Metrics statsd.Sink          // Optional: metrics sink
	Now     func() time.Time     // Optional: clock override for tests
}

// JobService is the job store. Records live in a core.CacheRepository and
// disappear when their TTL elapses.
type JobService struct {
	cache   core.CacheRepository
	ttl     time.Duration
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Cache == nil {
		return nil, errors.New("CacheRepository is required")
	}
	if opts.TTL <= 0 {
		return nil, errors.New("TTL must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &JobService{
		cache:   opts.Cache,
		ttl:     opts.TTL,
		logger:  logger.With("component", "job_service"),
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

// TTL returns the lifetime of job records.
func (s *JobService) TTL() time.Duration { return s.ttl }

// Create stores a new processing job of the given kind.
func (s *JobService) Create(ctx context.Context, kind model.JobKind) (*model.Job, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("create job: invalid kind %q", kind)
	}
	now := s.now().UTC()
	job := &model.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    model.JobStatusProcessing,
		Message:   "Job queued.",
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.put(ctx, job, s.ttl); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.DebugContext(ctx, "job created", "job_id", job.ID, "kind", kind)
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Kind:       string(kind),
		Transition: metrics.TransitionCreated,
		Result:     metrics.ResultSuccess,
	})
	return job, nil
}

// Get returns the job with id, or ErrJobNotFound.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	if id == "" {
		return nil, ErrJobNotFound
	}
	raw, err := s.cache.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	if raw == nil {
		return nil, ErrJobNotFound
	}
	var job model.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	if job.Expired(s.now()) {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

// GetKind is Get restricted to one kind. A job of another kind is reported as not found.
func (s *JobService) GetKind(ctx context.Context, id string, kind model.JobKind) (*model.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Kind != kind {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Complete moves a processing job to completed with the given message and payload.
func (s *JobService) Complete(ctx context.Context, id, message string, payload any) error {
	raw, err := encodePayload(payload)
	if err != nil {
		return err
	}
	return s.finish(ctx, id, terminal{status: model.JobStatusCompleted, message: message, payload: raw})
}

// Fail moves a processing job to failed. message is shown to users; cause is only logged.
// payload may carry partial progress and may be nil.
func (s *JobService) Fail(ctx context.Context, id, message string, payload any, cause error) error {
	raw, err := encodePayload(payload)
	if err != nil {
		return err
	}
	return s.finish(ctx, id, terminal{status: model.JobStatusFailed, message: message, payload: raw, cause: cause})
}

func encodePayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode job payload: %w", err)
	}
	return b, nil
}

// Evict removes a job before its TTL. It reports whether the job existed.
func (s *JobService) Evict(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	deleted, err := s.cache.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("evict job %s: %w", id, err)
	}
	if _, err := s.cache.Delete(ctx, id+finalSuffix); err != nil {
		s.logger.WarnContext(ctx, "failed to drop job final marker", "job_id", id, "error", err)
	}
	if deleted {
		s.logger.InfoContext(ctx, "job evicted", "job_id", id)
	}
	return deleted, nil
}

type terminal struct {
	status  model.JobStatus
	message string
	payload json.RawMessage
	cause   error
}

func (s *JobService) finish(ctx context.Context, id string, t terminal) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return fmt.Errorf("job %s is %s: %w", id, job.Status, ErrJobFinalized)
	}

	now := s.now().UTC()
	remaining := job.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return ErrJobNotFound
	}

	// The marker makes the terminal transition single-shot across writers and instances.
	claimed, err := s.cache.SetIfNotExists(ctx, id+finalSuffix, []byte(t.status), remaining)
	if err != nil {
		return fmt.Errorf("claim job %s: %w", id, err)
	}
	if !claimed {
		return fmt.Errorf("job %s: %w", id, ErrJobFinalized)
	}

	job.Status = t.status
	job.Message = t.message
	job.Payload = t.payload
	job.UpdatedAt = now
	if err := s.put(ctx, job, remaining); err != nil {
		// Release the claim so the transition can be retried instead of
		// leaving the job processing until it expires.
		if _, derr := s.cache.Delete(context.WithoutCancel(ctx), id+finalSuffix); derr != nil {
			err = errors.Join(err, fmt.Errorf("release claim: %w", derr))
		}
		return fmt.Errorf("finish job %s: %w", id, err)
	}

	s.record(ctx, job, t.cause)
	return nil
}

func (s *JobService) put(ctx context.Context, job *model.Job, ttl time.Duration) error {
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return s.cache.Set(ctx, job.ID, b, ttl)
}

func (s *JobService) record(ctx context.Context, job *model.Job, cause error) {
	elapsed := job.UpdatedAt.Sub(job.CreatedAt)
	m := metrics.JobMetric{Kind: string(job.Kind), Duration: elapsed}

	if job.Status == model.JobStatusFailed {
		m.Transition, m.Result, m.Err = metrics.TransitionFailed, metrics.ResultError, cause
		s.logger.WarnContext(ctx, "job failed",
			"job_id", job.ID,
			"kind", job.Kind,
			"status", job.Status,
			"duration", elapsed,
			"message", job.Message,
			"error", cause,
		)
	} else {
		m.Transition, m.Result = metrics.TransitionCompleted, metrics.ResultSuccess
		s.logger.InfoContext(ctx, "job completed",
			"job_id", job.ID,
			"kind", job.Kind,
			"status", job.Status,
			"duration", elapsed,
		)
	}
	metrics.EmitJobLifecycle(s.metrics, m)
}
