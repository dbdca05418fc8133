// Package manager implements the enqueue manager's client-facing front:
// it ticks a local logical clock, buffers the request into the load
// balancer, and returns immediately without waiting for dispatch.
package manager

import (
	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/loadbalancer"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// Front accepts client enqueue requests and hands them to a Balancer. It
// exposes no guarantee beyond buffer acceptance; dispatch failures are
// surfaced through the balancer's own metrics, not back to the caller.
type Front struct {
	Clock    *clock.Lamport
	Balancer *loadbalancer.Balancer
}

// New returns a Front over clk and bal.
func New(clk *clock.Lamport, bal *loadbalancer.Balancer) *Front {
	return &Front{Clock: clk, Balancer: bal}
}

// Enqueue ticks the manager-local clock and buffers req, returning once
// buffered. It does not wait for the balancer to dispatch.
func (f *Front) Enqueue(priority uint32, payload []byte) {
	f.Clock.Tick()
	f.Balancer.Insert(transport.EnqueueRequest{Priority: priority, Payload: payload})
}
