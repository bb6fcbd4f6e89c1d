package scan

import (
	"context"
	"sync"
)

// Gate holds one candidate until the operator accepts or rejects it.
type Gate struct {
	mu      sync.Mutex
	pending *Candidate
	decide  chan bool
}

func newGate() *Gate {
	return &Gate{decide: make(chan bool, 1)}
}

// offer publishes c, calls opened, and blocks until a decision or ctx ends.
func (g *Gate) offer(ctx context.Context, c Candidate, opened func()) (bool, error) {
	g.mu.Lock()
	g.pending = &c
	select {
	case <-g.decide:
	default:
	}
	g.mu.Unlock()

	if opened != nil {
		opened()
	}

	select {
	case ok := <-g.decide:
		return ok, nil
	case <-ctx.Done():
		g.mu.Lock()
		g.pending = nil
		select {
		case <-g.decide:
		default:
		}
		g.mu.Unlock()
		return false, ctx.Err()
	}
}

// Accept confirms the pending candidate. It returns false if nothing is
// waiting.
func (g *Gate) Accept() bool { return g.resolve(true) }

// Reject drops the pending candidate. It returns false if nothing is waiting.
func (g *Gate) Reject() bool { return g.resolve(false) }

// Pending returns the candidate currently waiting, if any.
func (g *Gate) Pending() (Candidate, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return Candidate{}, false
	}
	return *g.pending, true
}

func (g *Gate) resolve(accept bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return false
	}
	g.pending = nil
	g.decide <- accept
	return true
}
