package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExpirer struct {
	mu      sync.Mutex
	cutoffs []time.Time
	expired int
	err     error
}

func (s *stubExpirer) ExpireStale(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.expired, s.err
}

func (s *stubExpirer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cutoffs)
}

type stubPurger struct {
	nows   []time.Time
	purged int
	err    error
}

func (s *stubPurger) PurgeExpiredSessions(_ context.Context, now time.Time) (int, error) {
	s.nows = append(s.nows, now)
	return s.purged, s.err
}

func TestRunOnceAppliesGracePeriod(t *testing.T) {
	now := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	expirer := &stubExpirer{expired: 3}
	purger := &stubPurger{purged: 2}
	cleaner := NewCleaner(expirer, purger, time.Hour, 2*time.Hour, nil)

	report, err := cleaner.RunOnce(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, Report{ExpiredReservations: 3, PurgedSessions: 2, RanAt: now}, report)
	require.Len(t, expirer.cutoffs, 1)
	assert.Equal(t, now.Add(-2*time.Hour), expirer.cutoffs[0])
	require.Len(t, purger.nows, 1)
	assert.Equal(t, now, purger.nows[0])
}

func TestRunOnceStopsOnExpiryFailure(t *testing.T) {
	expirer := &stubExpirer{err: errors.New("db down")}
	purger := &stubPurger{}
	cleaner := NewCleaner(expirer, purger, time.Hour, time.Hour, nil)

	_, err := cleaner.RunOnce(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expire stale reservations")
	assert.Empty(t, purger.nows)
}

func TestRunOnceReportsPurgeFailure(t *testing.T) {
	cleaner := NewCleaner(&stubExpirer{expired: 1}, &stubPurger{err: errors.New("db down")}, time.Hour, time.Hour, nil)

	report, err := cleaner.RunOnce(context.Background(), time.Now())
	require.Error(t, err)
	assert.Equal(t, 1, report.ExpiredReservations)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	expirer := &stubExpirer{}
	cleaner := NewCleaner(expirer, &stubPurger{}, 5*time.Millisecond, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleaner.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return expirer.calls() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup job did not stop after cancellation")
	}
}

func TestRunWithoutIntervalReturnsImmediately(t *testing.T) {
	cleaner := NewCleaner(&stubExpirer{}, &stubPurger{}, 0, time.Hour, nil)

	done := make(chan struct{})
	go func() {
		cleaner.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled cleanup job kept running")
	}
}
