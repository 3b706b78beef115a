package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/balancedesk/config"
	"github.com/target/balancedesk/internal/mocks"
)

type fakeLocker struct {
	err      error
	obtained []string
	released int
}

func (l *fakeLocker) Obtain(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.obtained = append(l.obtained, key)
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

func testReaperConfig() config.ReaperConfig {
	return config.ReaperConfig{
		Schedule:       "@every 5m",
		ArtifactMaxAge: 72 * time.Hour,
		LockTTL:        time.Minute,
		LockKey:        "balancedesk:reaper:lock",
	}
}

func TestNewReaperService_RequiresArtifacts(t *testing.T) {
	_, err := NewReaperService(ReaperServiceOptions{Config: testReaperConfig()})
	require.EqualError(t, err, "ArtifactStore is required")
}

func TestReaperService_RunOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	artifacts := mocks.NewMockArtifactStore(ctrl)
	f := newJobFixture(t)
	locker := &fakeLocker{}
	ctx := context.Background()

	_, err := f.jobs.Create(ctx, "validation")
	require.NoError(t, err)
	f.clock.AddTime(2 * time.Hour)

	artifacts.EXPECT().DeleteOlderThan(gomock.Any(), f.clock.Now().Add(-72*time.Hour)).Return(2, nil)

	svc, err := NewReaperService(ReaperServiceOptions{
		Artifacts: artifacts,
		Cache:     f.cache,
		Locker:    locker,
		Config:    testReaperConfig(),
		Metrics:   f.metrics,
		Now:       f.clock.Now,
	})
	require.NoError(t, err)

	report, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 1, report.JobsRemoved)
	assert.Equal(t, 2, report.ArtifactsRemoved)
	assert.Equal(t, 0, f.cache.Len())

	assert.Equal(t, []string{"balancedesk:reaper:lock"}, locker.obtained)
	assert.Equal(t, 1, locker.released)

	sweeps := f.metrics.Find("reaper.sweep")
	require.Len(t, sweeps, 1)
	assert.Equal(t, "success", sweeps[0].Tags["result"])
	assert.Len(t, f.metrics.Find("reaper.items_removed"), 2)
}

func TestReaperService_SkipsWhenLockHeld(t *testing.T) {
	ctrl := gomock.NewController(t)
	artifacts := mocks.NewMockArtifactStore(ctrl)
	f := newJobFixture(t)

	svc, err := NewReaperService(ReaperServiceOptions{
		Artifacts: artifacts,
		Cache:     f.cache,
		Locker:    &fakeLocker{err: ErrLockHeld},
		Config:    testReaperConfig(),
		Metrics:   f.metrics,
	})
	require.NoError(t, err)

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Skipped)

	sweeps := f.metrics.Find("reaper.sweep")
	require.Len(t, sweeps, 1)
	assert.Equal(t, "noop", sweeps[0].Tags["result"])
}

func TestReaperService_LockFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, err := NewReaperService(ReaperServiceOptions{
		Artifacts: mocks.NewMockArtifactStore(ctrl),
		Locker:    &fakeLocker{err: errors.New("redis down")},
		Config:    testReaperConfig(),
	})
	require.NoError(t, err)

	_, err = svc.RunOnce(context.Background())
	require.ErrorContains(t, err, "obtain sweep lock")
}

func TestReaperService_ArtifactErrorIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	artifacts := mocks.NewMockArtifactStore(ctrl)
	rec := newJobFixture(t).metrics
	artifacts.EXPECT().DeleteOlderThan(gomock.Any(), gomock.Any()).Return(1, errors.New("permission denied"))

	svc, err := NewReaperService(ReaperServiceOptions{
		Artifacts: artifacts,
		Config:    testReaperConfig(),
		Metrics:   rec,
	})
	require.NoError(t, err)

	report, err := svc.RunOnce(context.Background())
	require.ErrorContains(t, err, "delete old artifacts")
	assert.Equal(t, 1, report.ArtifactsRemoved)
	assert.Equal(t, 0, report.JobsRemoved)

	sweeps := rec.Find("reaper.sweep")
	require.Len(t, sweeps, 1)
	assert.Equal(t, "error", sweeps[0].Tags["result"])
}
