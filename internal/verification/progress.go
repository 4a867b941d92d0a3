package verification

import (
	"context"
	"sync/atomic"
	"time"
)

// ProgressSimulator fakes upload/processing progress for a submission that is
// in flight. The remote service provides no progress events, so this is a UX
// illusion: a timer drives the value toward a 90% clamp and only Finish()
// moves it to 100 once the real response has arrived.
type ProgressSimulator struct {
	percent  atomic.Int64
	done     atomic.Bool
	interval time.Duration
	step     int64
}

// NewProgressSimulator builds a simulator that advances by step percent per
// interval. Zero values choose sensible defaults (10% every 200ms).
func NewProgressSimulator(interval time.Duration, step int64) *ProgressSimulator {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	if step <= 0 {
		step = 10
	}
	return &ProgressSimulator{interval: interval, step: step}
}

// Start launches the timer loop. It stops on its own at the 90% clamp, when
// Finish is called, or when ctx is cancelled.
func (p *ProgressSimulator) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if p.done.Load() {
					return
				}
				if !p.advance() {
					return
				}
			}
		}
	}()
}

// advance bumps the value, clamped below completion. Returns false once the
// clamp is reached.
func (p *ProgressSimulator) advance() bool {
	for {
		current := p.percent.Load()
		if current >= 90 {
			return false
		}
		next := current + p.step
		if next > 90 {
			next = 90
		}
		if p.percent.CompareAndSwap(current, next) {
			return next < 90
		}
	}
}

// Finish jumps the value to 100. Called when the real response arrives.
func (p *ProgressSimulator) Finish() {
	p.done.Store(true)
	p.percent.Store(100)
}

// Percent returns the current simulated progress (0-100).
func (p *ProgressSimulator) Percent() int64 {
	return p.percent.Load()
}
