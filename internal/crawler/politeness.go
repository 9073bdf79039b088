package crawler

import (
	"context"
	"sync"
	"time"
)

// visitTracker provides thread-safe visited URL tracking to prevent revisits.
type visitTracker struct {
	seen sync.Map
}

// MarkIfNew stores the URL if it has not been seen before and returns true.
func (t *visitTracker) MarkIfNew(url string) bool {
	if url == "" {
		return false
	}
	_, loaded := t.seen.LoadOrStore(url, struct{}{})
	return !loaded
}

// pause sleeps for the politeness delay, returning early on cancellation.
func pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
