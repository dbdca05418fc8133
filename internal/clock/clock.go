// Package clock implements the Lamport logical clock each replica uses to
// order its own observable events (enqueue, dequeue, update, prepare/accept/
// commit) and to mint Paxos proposal numbers.
package clock

import "sync/atomic"

// Lamport is a monotonic per-process logical clock. The zero value starts
// at 0 and is ready to use.
type Lamport struct {
	value uint64
}

// New returns a Lamport clock starting at 0.
func New() *Lamport {
	return &Lamport{}
}

// Tick reads the current value and increments the counter atomically,
// returning the pre-increment value as the timestamp for the calling event.
func (l *Lamport) Tick() uint64 {
	return atomic.AddUint64(&l.value, 1) - 1
}

// Now returns the current value without advancing the clock. Used where a
// caller needs "now" for aging recomputation without generating a new event.
func (l *Lamport) Now() uint64 {
	return atomic.LoadUint64(&l.value)
}

// Observe advances the clock to at least remote+1, the standard Lamport
// rule for incorporating a timestamp received from another replica.
func (l *Lamport) Observe(remote uint64) {
	for {
		cur := atomic.LoadUint64(&l.value)
		next := remote + 1
		if next <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&l.value, cur, next) {
			return
		}
	}
}
