// Package health implements the node-health probe: a stateless
// request/response the load balancer uses to score and prune nodes,
// generalized from a periodic ping loop into a single RPC round trip.
package health

import (
	"context"
	"errors"
	"time"

	"github.com/hayley-d/distributed-priority-queue/internal/cluster"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// ErrProbeFailed is returned for any transport, deadline, or decode error
// encountered while probing a node. The failing node is dropped from the
// current weighting cycle; the error is never surfaced to clients.
var ErrProbeFailed = errors.New("health: probe failed")

// Deadline is the per-probe RPC timeout.
var Deadline = 10 * time.Millisecond

// Report is a node's self-reported health, the raw input to the load
// balancer's weight formula.
type Report struct {
	CPUUtilization float64
	MemoryUsage    float64
	QueueDepth     uint64
	ResponseTime   float64
}

// Prober issues NodeHealthService.GetNodeHealth against a single node.
type Prober struct {
	handle cluster.HealthHandle
}

// NewProber returns a Prober bound to handle.
func NewProber(handle cluster.HealthHandle) *Prober {
	return &Prober{handle: handle}
}

// Probe issues one health RPC with the package Deadline. Any failure,
// including a timeout, maps to ErrProbeFailed.
func (p *Prober) Probe(ctx context.Context) (Report, error) {
	callCtx, cancel := context.WithTimeout(ctx, Deadline)
	defer cancel()

	resp, err := p.handle.GetNodeHealth(callCtx, transport.NodeHealthRequest{})
	if err != nil {
		return Report{}, ErrProbeFailed
	}
	return Report{
		CPUUtilization: resp.CPUUtilization,
		MemoryUsage:    resp.MemoryUsage,
		QueueDepth:     resp.QueueDepth,
		ResponseTime:   resp.ResponseTime,
	}, nil
}
