// Package notify broadcasts a monotonically increasing change counter.
// Every successful revision commit bumps the counter; subscribers block in
// Wait until it moves past the value they last saw.
package notify

import (
	"context"
	"sync"
)

// Notifier is a broadcast counter. The zero value is not usable; call New.
type Notifier struct {
	mu  sync.Mutex
	seq uint64
	ch  chan struct{}
}

// New returns a notifier with the counter at zero.
func New() *Notifier {
	return &Notifier{ch: make(chan struct{})}
}

// Bump increments the counter and wakes all waiters.
func (n *Notifier) Bump() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	close(n.ch)
	n.ch = make(chan struct{})
	return n.seq
}

// Last returns the current counter value.
func (n *Notifier) Last() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.seq
}

// Wait blocks until the counter exceeds seen, returning the new value.
// A caller that passes a stale seen value returns immediately, so no bump
// is ever missed between observing Last and calling Wait.
func (n *Notifier) Wait(ctx context.Context, seen uint64) (uint64, error) {
	for {
		n.mu.Lock()
		if n.seq > seen {
			seq := n.seq
			n.mu.Unlock()
			return seq, nil
		}
		ch := n.ch
		n.mu.Unlock()

		select {
		case <-ctx.Done():
			return seen, ctx.Err()
		case <-ch:
		}
	}
}
