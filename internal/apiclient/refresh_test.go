package apiclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForPending(t *testing.T, r *refresher, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return r.pending() == n }, 2*time.Second, time.Millisecond)
}

func TestRefresher_SingleFlight(t *testing.T) {
	var r refresher
	var runs atomic.Int32
	release := make(chan struct{})

	const callers = 5
	type outcome struct {
		leader bool
		err    error
	}
	results := make(chan outcome, callers)

	fn := func() error {
		runs.Add(1)
		<-release
		return nil
	}

	go func() {
		leader, _, err := r.run(context.Background(), fn)
		results <- outcome{leader, err}
	}()
	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, time.Millisecond)

	for i := 1; i < callers; i++ {
		go func() {
			leader, _, err := r.run(context.Background(), fn)
			results <- outcome{leader, err}
		}()
	}
	waitForPending(t, &r, callers-1)
	close(release)

	leaders := 0
	for i := 0; i < callers; i++ {
		o := <-results
		require.NoError(t, o.err)
		if o.leader {
			leaders++
		}
	}
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, 1, leaders)
	assert.Zero(t, r.pending())
}

func TestRefresher_FailureReachesEveryWaiter(t *testing.T) {
	var r refresher
	release := make(chan struct{})
	started := make(chan struct{})
	boom := errors.New("refresh rejected")

	var wg sync.WaitGroup
	errs := make([]error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, errs[0] = r.run(context.Background(), func() error {
			close(started)
			<-release
			return boom
		})
	}()
	<-started

	for i := 1; i < len(errs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = r.run(context.Background(), func() error {
				t.Error("waiter must not run its own refresh")
				return nil
			})
		}(i)
	}
	waitForPending(t, &r, 2)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, boom)
	}
}

func TestRefresher_QueuesWaitersUntilLeaderFinishes(t *testing.T) {
	var r refresher
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_, _, _ = r.run(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var done atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = r.run(context.Background(), func() error { return nil })
			done.Add(1)
		}()
		waitForPending(t, &r, i+1)
	}

	assert.Zero(t, done.Load(), "waiters must block while the refresh is in flight")

	close(release)
	wg.Wait()
	assert.Equal(t, int32(3), done.Load())
	assert.Zero(t, r.pending())
}

func TestRefresher_WaiterContextCanceled(t *testing.T) {
	var r refresher
	release := make(chan struct{})
	started := make(chan struct{})
	leaderDone := make(chan error, 1)

	go func() {
		_, _, err := r.run(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
		leaderDone <- err
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		leader, abandoned, err := r.run(ctx, func() error { return nil })
		assert.False(t, leader)
		assert.True(t, abandoned)
		waiterDone <- err
	}()
	waitForPending(t, &r, 1)

	cancel()
	assert.ErrorIs(t, <-waiterDone, context.Canceled)

	close(release)
	assert.NoError(t, <-leaderDone)
}

func TestRefresher_SequentialRefreshesEachRun(t *testing.T) {
	var r refresher
	var runs int
	for i := 0; i < 3; i++ {
		leader, _, err := r.run(context.Background(), func() error {
			runs++
			return nil
		})
		require.NoError(t, err)
		assert.True(t, leader)
	}
	assert.Equal(t, 3, runs)
}

func TestRefresher_LeaderDeadlineIsNotWaiterCancellation(t *testing.T) {
	var r refresher
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_, _, _ = r.run(context.Background(), func() error {
			close(started)
			<-release
			return context.DeadlineExceeded
		})
	}()
	<-started

	done := make(chan struct{})
	var abandoned bool
	var err error
	go func() {
		defer close(done)
		_, abandoned, err = r.run(context.Background(), func() error { return nil })
	}()
	waitForPending(t, &r, 1)
	close(release)
	<-done

	assert.False(t, abandoned)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
