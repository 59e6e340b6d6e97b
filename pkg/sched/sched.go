// Package sched drives chunked background work through a host-provided
// scheduling primitive.
package sched

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Scheduler decides when the next step may run. Schedule either runs fn to
// completion on the calling goroutine before returning nil, or returns an
// error without running it. Implementations choose how long to wait first.
type Scheduler interface {
	Schedule(ctx context.Context, fn func()) error
}

// Inline runs each step immediately on the calling goroutine.
type Inline struct{}

// Schedule runs fn unless ctx is already done.
func (Inline) Schedule(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fn()

	return nil
}

// Paced spaces steps out with a token-bucket limiter.
type Paced struct {
	limiter *rate.Limiter
}

// NewPaced returns a scheduler that runs at most perSecond steps per second.
// A non-positive rate disables pacing.
func NewPaced(perSecond float64) *Paced {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	return &Paced{limiter: rate.NewLimiter(limit, 1)}
}

// Schedule waits for a token, then runs fn.
func (p *Paced) Schedule(ctx context.Context, fn func()) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("paced wait: %w", err)
	}

	fn()

	return nil
}

// Run schedules step repeatedly until it reports no more work or ctx ends.
// It relies on Schedule being synchronous and returns the number of steps
// executed.
func Run(ctx context.Context, s Scheduler, step func() bool) (int, error) {
	steps := 0
	more := true

	for more {
		err := s.Schedule(ctx, func() {
			more = step()
			steps++
		})
		if err != nil {
			return steps, err
		}
	}

	return steps, nil
}
