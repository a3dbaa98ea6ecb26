package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingPopulator struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	err     error
}

func (p *blockingPopulator) Populate(ctx context.Context) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.release != nil {
		<-p.release
	}
	return p.err
}

func (p *blockingPopulator) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestStartDisabledIsNoop(t *testing.T) {
	s := New(&blockingPopulator{}, false, "")
	require.NoError(t, s.StartDatabasePopulation())
	assert.Empty(t, s.Status())
}

func TestStartIsIdempotent(t *testing.T) {
	s := New(&blockingPopulator{}, true, "0 12 * * *")
	require.NoError(t, s.StartDatabasePopulation())
	require.NoError(t, s.StartDatabasePopulation())
	defer s.StopAll()

	status := s.Status()
	require.Len(t, status, 1)
	assert.True(t, status[JobPopulate].Scheduled)
	assert.False(t, status[JobPopulate].Running)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(&blockingPopulator{}, true, "not a cron expression")
	require.Error(t, s.StartDatabasePopulation())
	assert.Empty(t, s.Status())
}

func TestDefaultSchedule(t *testing.T) {
	s := New(&blockingPopulator{}, false, "")
	assert.Equal(t, "0 12 * * *", s.Schedule())
	assert.False(t, s.Enabled())
}

func TestOverlapGuardSkipsConcurrentRun(t *testing.T) {
	p := &blockingPopulator{release: make(chan struct{})}
	s := New(p, true, "0 12 * * *")

	done := make(chan error, 1)
	go func() { done <- s.RunPopulate(context.Background()) }()

	// Wait for the first run to take the flag.
	require.Eventually(t, func() bool { return p.callCount() == 1 }, time.Second, time.Millisecond)

	// A second invocation while the first is in flight returns immediately
	// without touching the populator.
	require.NoError(t, s.RunPopulate(context.Background()))
	assert.Equal(t, 1, p.callCount())

	close(p.release)
	require.NoError(t, <-done)

	// Flag cleared: the next run executes.
	p.release = nil
	require.NoError(t, s.RunPopulate(context.Background()))
	assert.Equal(t, 2, p.callCount())
}

func TestRunningFlagClearsAfterFailure(t *testing.T) {
	p := &blockingPopulator{err: errors.New("seed failed")}
	s := New(p, true, "0 12 * * *")

	require.Error(t, s.RunPopulate(context.Background()))

	// Guard must not stick: a subsequent run still reaches the populator.
	require.Error(t, s.RunPopulate(context.Background()))
	assert.Equal(t, 2, p.callCount())
}

func TestTriggerPropagatesFailure(t *testing.T) {
	wantErr := errors.New("seed failed")
	s := New(&blockingPopulator{err: wantErr}, true, "0 12 * * *")

	err := s.Trigger(context.Background())
	require.ErrorIs(t, err, wantErr)
}

func TestStopJobIsIdempotent(t *testing.T) {
	s := New(&blockingPopulator{}, true, "0 12 * * *")
	require.NoError(t, s.StartDatabasePopulation())

	s.StopJob(JobPopulate)
	assert.Empty(t, s.Status())
	s.StopJob(JobPopulate)
	s.StopJob("unknown")
	s.StopAll()
}

func TestStatusReflectsRunningJob(t *testing.T) {
	p := &blockingPopulator{release: make(chan struct{})}
	s := New(p, true, "0 12 * * *")
	require.NoError(t, s.StartDatabasePopulation())
	defer s.StopAll()

	done := make(chan error, 1)
	go func() { done <- s.RunPopulate(context.Background()) }()
	require.Eventually(t, func() bool { return p.callCount() == 1 }, time.Second, time.Millisecond)

	status := s.Status()
	assert.True(t, status[JobPopulate].Running)

	close(p.release)
	require.NoError(t, <-done)

	status = s.Status()
	assert.False(t, status[JobPopulate].Running)
}
