package gate

import (
	"context"
	"sync/atomic"
)

// Gate bounds how many customers occupy the service counters at once.
// Capacity is fixed at construction; a channel semaphore does the counting,
// so waiters are woken in the order they blocked.
type Gate struct {
	sem      chan struct{}
	capacity int

	inFlight  atomic.Int64
	highWater atomic.Int64
	acquires  atomic.Int64
	releases  atomic.Int64
}

// New returns a gate with the given slot capacity. Negative capacity is
// treated as zero.
func New(capacity int) *Gate {
	if capacity < 0 {
		capacity = 0
	}
	return &Gate{sem: make(chan struct{}, capacity), capacity: capacity}
}

// Acquire blocks until a slot is granted or ctx ends, whichever comes first.
// On success it returns a release fn that must be called exactly once,
// on every exit path; deferring it right after a successful Acquire keeps
// the accounting exact. Calling release twice panics: a double release
// silently grows effective capacity, which is a programming defect rather
// than a condition to recover from.
//
// A zero-capacity gate declines immediately without waiting.
func (g *Gate) Acquire(ctx context.Context) (release func(), ok bool) {
	if g.capacity == 0 {
		return nil, false
	}
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, false
	}
	g.acquires.Add(1)
	n := g.inFlight.Add(1)
	for {
		hw := g.highWater.Load()
		if n <= hw || g.highWater.CompareAndSwap(hw, n) {
			break
		}
	}
	var done atomic.Bool
	return func() {
		if !done.CompareAndSwap(false, true) {
			panic("gate: slot released twice")
		}
		g.inFlight.Add(-1)
		g.releases.Add(1)
		<-g.sem
	}, true
}

// Capacity returns the fixed slot count.
func (g *Gate) Capacity() int { return g.capacity }

// InFlight returns the number of slots currently held.
func (g *Gate) InFlight() int { return int(g.inFlight.Load()) }

// HighWater returns the most slots ever held at once.
func (g *Gate) HighWater() int { return int(g.highWater.Load()) }

// Acquires returns the total number of granted slots.
func (g *Gate) Acquires() int { return int(g.acquires.Load()) }

// Balanced reports whether every granted slot has been returned. Only
// meaningful once no task is mid-service.
func (g *Gate) Balanced() bool {
	return g.inFlight.Load() == 0 && g.acquires.Load() == g.releases.Load()
}
