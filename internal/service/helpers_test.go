package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/target/balancedesk/internal/data"
	"github.com/target/balancedesk/internal/domain/model"
	"github.com/target/balancedesk/internal/observability/statsd"
)

var testNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

type jobFixture struct {
	jobs    *JobService
	cache   *data.MemoryCacheRepo
	clock   *data.FixedTimeProvider
	metrics *statsd.Recorder
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()
	clock := data.NewFixedTimeProvider(testNow)
	cache := data.NewMemoryCacheRepo(clock)
	rec := &statsd.Recorder{}
	jobs, err := NewJobService(JobServiceOptions{
		Cache:   cache,
		TTL:     time.Hour,
		Metrics: rec,
		Now:     clock.Now,
	})
	require.NoError(t, err)
	return &jobFixture{jobs: jobs, cache: cache, clock: clock, metrics: rec}
}

// syncSubmitter runs tasks inline and finishes their jobs the way the worker pool does.
type syncSubmitter struct {
	jobs *JobService
	// rejectWith, when set, is returned instead of creating a job.
	rejectWith error
}

func (s *syncSubmitter) Submit(ctx context.Context, kind model.JobKind, task TaskFunc) (*model.Job, error) {
	if s.rejectWith != nil {
		return nil, s.rejectWith
	}
	job, err := s.jobs.Create(ctx, kind)
	if err != nil {
		return nil, err
	}
	out, err := task(ctx, job)
	if err != nil {
		var payload any
		var te *TaskError
		if errors.As(err, &te) {
			payload = te.Payload
		}
		return job, s.jobs.Fail(ctx, job.ID, FailureMessage(err), payload, err)
	}
	return job, s.jobs.Complete(ctx, job.ID, out.Message, out.Payload)
}

func mustGetJob(t *testing.T, jobs *JobService, id string) *model.Job {
	t.Helper()
	job, err := jobs.Get(context.Background(), id)
	require.NoError(t, err)
	return job
}

func day(y int, m time.Month, d int) model.Date { return model.NewDate(y, m, d) }
