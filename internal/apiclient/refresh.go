package apiclient

import (
	"context"
	"sync"
)

// refresher guarantees at most one session refresh in flight. Callers that
// arrive while a refresh runs are queued and released in arrival order with
// the leader's outcome.
type refresher struct {
	mu       sync.Mutex
	inFlight bool
	waiters  []chan error
}

// run executes fn unless a refresh is already in flight, in which case it
// waits for that refresh instead. leader is true for the caller that ran fn.
// abandoned is true only when this waiter's own ctx ended before the leader
// finished; err is then ctx.Err() and says nothing about the refresh.
func (r *refresher) run(ctx context.Context, fn func() error) (leader, abandoned bool, err error) {
	r.mu.Lock()
	if r.inFlight {
		ch := make(chan error, 1)
		r.waiters = append(r.waiters, ch)
		r.mu.Unlock()

		select {
		case err = <-ch:
			return false, false, err
		case <-ctx.Done():
			return false, true, ctx.Err()
		}
	}
	r.inFlight = true
	r.mu.Unlock()

	err = fn()

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.inFlight = false
	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- err
	}
	return true, false, err
}

func (r *refresher) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}
