package scan

import (
	"context"
	"sync"
)

// View owns the camera slot for one host screen. Only one session holds the
// camera at a time.
type View struct {
	mu      sync.Mutex
	current *Session
}

// Run closes the previous session, waits for it to release its camera, and
// then runs s.
func (v *View) Run(ctx context.Context, s *Session) error {
	v.mu.Lock()
	prev := v.current
	v.current = s
	v.mu.Unlock()

	if prev != nil && prev != s {
		prev.Close()
		select {
		case <-prev.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return s.Run(ctx)
}

// Current returns the session holding the slot, if any.
func (v *View) Current() *Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Close closes the current session and frees the slot.
func (v *View) Close() {
	v.mu.Lock()
	cur := v.current
	v.current = nil
	v.mu.Unlock()
	if cur != nil {
		cur.Close()
	}
}
