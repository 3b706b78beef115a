// Package jobrunner executes asynchronous jobs on a bounded in-process worker pool.
package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/target/balancedesk/internal/domain/model"
	apperrors "github.com/target/balancedesk/internal/errors"
	"github.com/target/balancedesk/internal/observability/metrics"
	"github.com/target/balancedesk/internal/observability/statsd"
	"github.com/target/balancedesk/internal/service"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 64

	// finishTimeout bounds the final job store write after a task returns.
	finishTimeout = 10 * time.Second
)

// RunnerOptions configures the job runner adapter.
type RunnerOptions struct {
	Jobs      *service.JobService // Required: job store
	Workers   int                 // number of worker goroutines; defaults to 4
	QueueSize int                 // tasks allowed to wait for a worker; defaults to 64
	Logger    *slog.Logger
	Metrics   statsd.Sink
}

// Runner accepts job tasks and executes them on a fixed set of workers.
// It implements service.JobSubmitter.
type Runner struct {
	jobs    *service.JobService
	workers int
	logger  *slog.Logger
	metrics statsd.Sink

	// slots bounds queued plus running tasks; queue has the same capacity so
	// an enqueue after a successful slot reservation never blocks.
	slots chan struct{}
	queue chan queuedTask

	mu       sync.RWMutex
	closed   bool
	stopping atomic.Bool
	base     atomic.Pointer[context.Context]
}

type queuedTask struct {
	job  *model.Job
	task service.TaskFunc
}

var _ service.JobSubmitter = (*Runner)(nil)

// NewRunner creates a Runner. Call Run to start the workers.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobService is required")
	}
	workers := opts.Workers
	if workers < 1 {
		workers = defaultWorkers
	}
	queueSize := opts.QueueSize
	if queueSize < 1 {
		queueSize = defaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	capacity := workers + queueSize
	return &Runner{
		jobs:    opts.Jobs,
		workers: workers,
		logger:  logger.With("component", "job_runner"),
		metrics: opts.Metrics,
		slots:   make(chan struct{}, capacity),
		queue:   make(chan queuedTask, capacity),
	}, nil
}

// Submit creates a processing job and queues task for it. When the pool is
// saturated no job is created and an unavailable error is returned.
func (r *Runner) Submit(ctx context.Context, kind model.JobKind, task service.TaskFunc) (*model.Job, error) {
	if task == nil {
		return nil, errors.New("task is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, apperrors.Unavailable("Service is shutting down. Please retry shortly.")
	}

	select {
	case r.slots <- struct{}{}:
	default:
		r.logger.WarnContext(ctx, "job queue full, rejecting submission", "kind", kind)
		metrics.EmitJobLifecycle(r.metrics, metrics.JobMetric{
			Kind:       string(kind),
			Transition: metrics.TransitionRejected,
			Result:     metrics.ResultNoop,
		})
		return nil, apperrors.Unavailable("Too many jobs in progress. Please retry shortly.")
	}

	job, err := r.jobs.Create(ctx, kind)
	if err != nil {
		<-r.slots
		return nil, err
	}
	r.queue <- queuedTask{job: job, task: task}
	if r.metrics != nil {
		r.metrics.Gauge("job.queue_depth", float64(len(r.queue)), nil)
	}
	return job, nil
}

// Run starts the workers and blocks until ctx is cancelled and every started
// task has finished. Tasks still queued at shutdown are failed.
func (r *Runner) Run(ctx context.Context) error {
	base := context.WithoutCancel(ctx)
	r.base.Store(&base)
	r.logger.InfoContext(ctx, "starting job runner", "workers", r.workers, "capacity", cap(r.slots))

	var wg sync.WaitGroup
	for range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range r.queue {
				r.execute(item)
			}
		}()
	}

	<-ctx.Done()
	r.stopping.Store(true)
	r.mu.Lock()
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	wg.Wait()
	r.logger.Info("job runner stopped")
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func (r *Runner) baseContext() context.Context {
	if p := r.base.Load(); p != nil {
		return *p
	}
	return context.Background()
}

func (r *Runner) execute(item queuedTask) {
	defer func() { <-r.slots }()
	job := item.job

	if r.stopping.Load() {
		r.finish(job, service.Outcome{}, &service.TaskError{
			Message: "Service shut down before the job started. Please resubmit.",
			Err:     context.Canceled,
		})
		return
	}

	// Detached from the submitting request; bounded by the job's lifetime.
	ctx, cancel := context.WithTimeout(r.baseContext(), r.jobs.TTL())
	defer cancel()

	outcome, err := r.safeRun(ctx, item)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && service.FailureMessage(err) == service.DefaultFailureMessage {
		err = &service.TaskError{Message: "Job did not finish within its time limit.", Err: err}
	}
	r.finish(job, outcome, err)
}

func (r *Runner) safeRun(ctx context.Context, item queuedTask) (outcome service.Outcome, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "job task panicked",
				"job_id", item.job.ID,
				"kind", item.job.Kind,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			err = &service.TaskError{
				Message: "Job failed unexpectedly.",
				Err:     fmt.Errorf("panic: %v", rec),
			}
		}
	}()
	return item.task(ctx, item.job)
}

func (r *Runner) finish(job *model.Job, outcome service.Outcome, taskErr error) {
	ctx, cancel := context.WithTimeout(r.baseContext(), finishTimeout)
	defer cancel()

	var err error
	if taskErr != nil {
		var payload any
		var te *service.TaskError
		if errors.As(taskErr, &te) {
			payload = te.Payload
		}
		err = r.jobs.Fail(ctx, job.ID, service.FailureMessage(taskErr), payload, taskErr)
	} else {
		err = r.jobs.Complete(ctx, job.ID, outcome.Message, outcome.Payload)
	}

	switch {
	case err == nil:
	case errors.Is(err, service.ErrJobNotFound):
		r.logger.WarnContext(ctx, "job expired or was evicted before it finished", "job_id", job.ID, "kind", job.Kind)
	default:
		r.logger.ErrorContext(ctx, "failed to record job outcome", "job_id", job.ID, "kind", job.Kind, "error", err)
	}
}
