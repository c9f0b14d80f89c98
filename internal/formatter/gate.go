// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formatter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate spaces call starts to one provider. Admissions through the same
// Gate are at least its delay apart, whichever goroutine or job asks. It
// is a token bucket with a burst of one.
type Gate struct {
	delay   time.Duration
	limiter *rate.Limiter
}

// NewGate returns a gate with the given minimum spacing. A delay of zero or
// less admits every call immediately.
func NewGate(delay time.Duration) *Gate {
	if delay <= 0 {
		return &Gate{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Gate{delay: delay, limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Delay returns the configured spacing.
func (g *Gate) Delay() time.Duration { return g.delay }

// Wait blocks until the caller may start a call and returns the admission
// time, which is the slot the limiter reserved for it. It returns ctx.Err()
// if ctx ends while waiting; the slot is then handed back.
func (g *Gate) Wait(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	now := time.Now()
	r := g.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	at := now.Add(wait)
	if wait == 0 {
		return at, nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return time.Time{}, ctx.Err()
	case <-timer.C:
		return at, nil
	}
}

// Gates hands out one Gate per provider name for the lifetime of a run.
type Gates struct {
	mu    sync.Mutex
	gates map[string]*Gate
}

// For returns the gate for provider, creating it with delay on first use.
// Later calls ignore delay.
func (gs *Gates) For(provider string, delay time.Duration) *Gate {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if gs.gates == nil {
		gs.gates = make(map[string]*Gate)
	}
	g, ok := gs.gates[provider]
	if !ok {
		g = NewGate(delay)
		gs.gates[provider] = g
	}
	return g
}
