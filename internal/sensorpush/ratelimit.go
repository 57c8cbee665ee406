package sensorpush

import (
	"context"
	"sync"
	"time"
)

// CallGate serializes outbound SensorPush calls to at most one per window,
// measured from the end of the previous guarded call. It is a single-slot
// gate, not a token bucket: the upstream allows one request per minute and
// bursts buy nothing. The gate is an owned instance rather than package-level
// state so tests and multiple deployments stay independent.
type CallGate struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCallGate creates a gate with the given minimum spacing between calls.
func NewCallGate(window time.Duration) *CallGate {
	return &CallGate{
		window: window,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Wait blocks until the window since the previous guarded call has elapsed,
// then stamps the gate. Holding the mutex across the sleep serializes
// concurrent callers. A cancelled context aborts the wait without stamping.
func (g *CallGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		elapsed := g.now().Sub(g.last)
		if elapsed < g.window {
			if err := g.sleep(ctx, g.window-elapsed); err != nil {
				return err
			}
		}
	}
	g.last = g.now()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
