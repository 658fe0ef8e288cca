package backend

import (
	"context"
	"time"
)

// pacer spaces source queries at least interval apart. Only the fetcher's
// worker calls it, so it holds no lock.
type pacer struct {
	interval time.Duration
	last     time.Time
}

// ready blocks until a query may start and marks the slot as taken. It
// returns false if ctx ends first.
func (p *pacer) ready(ctx context.Context) bool {
	if p.interval > 0 && !p.last.IsZero() {
		if wait := time.Until(p.last.Add(p.interval)); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return false
			case <-timer.C:
			}
		}
	}
	if ctx.Err() != nil {
		return false
	}
	p.last = time.Now()
	return true
}
