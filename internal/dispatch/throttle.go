package dispatch

import (
	"context"
	"time"
)

// Throttle enforces a minimum pause between the end of one fetch and the
// start of the next.
type Throttle struct {
	Delay time.Duration

	last time.Time
}

// Wait blocks until Delay has passed since the previous Done, or ctx is
// done. It never blocks before the first Done.
func (t *Throttle) Wait(ctx context.Context) error {
	if !t.last.IsZero() && t.Delay > 0 {
		if d := t.Delay - time.Since(t.last); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return ctx.Err()
}

// Done marks the end of a fetch.
func (t *Throttle) Done() {
	t.last = time.Now()
}
