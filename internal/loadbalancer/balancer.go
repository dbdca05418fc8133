// Package loadbalancer implements the weighted enqueue distributor: a
// FIFO buffer of requests and a node list sorted descending by weight,
// dispatched against a quota computed from node count.
package loadbalancer

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hayley-d/distributed-priority-queue/internal/cluster"
	"github.com/hayley-d/distributed-priority-queue/internal/health"
	"github.com/hayley-d/distributed-priority-queue/internal/metrics"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// ErrDispatchFailed is returned by Distribute when a leader RPC fails;
// any requests not yet popped from the buffer stay buffered for the next
// cycle.
var ErrDispatchFailed = errors.New("loadbalancer: dispatch failed")

// DialTimeout bounds each leader enqueue RPC issued during Distribute.
var DialTimeout = 10 * time.Millisecond

// Node is one leader the balancer can dispatch to, paired with the
// health handle used to score it.
type Node struct {
	Leader cluster.LeaderHandle
	Health cluster.HealthHandle
}

// weightedNode pairs a Node with its current normalized weight.
type weightedNode struct {
	node   Node
	weight float64
}

// Balancer holds the FIFO request buffer and the weighted node list. One
// mutex protects both. Distribute and RefreshWeights take it only around
// each buffer or node-list access and release it while leader RPCs and
// health probes are in flight, so distribution and refresh cycles are not
// serialized against each other.
type Balancer struct {
	mu      sync.Mutex
	buffer  []transport.EnqueueRequest
	nodes   []weightedNode
	metrics metrics.Sink

	cyclesSinceRefresh int
}

// New returns an empty Balancer over the given nodes. Initial weights are
// equal until the first RefreshWeights call.
func New(initial []Node, sink metrics.Sink) *Balancer {
	if sink == nil {
		sink = metrics.Noop{}
	}
	nodes := make([]weightedNode, len(initial))
	if len(initial) > 0 {
		even := 1.0 / float64(len(initial))
		for i, n := range initial {
			nodes[i] = weightedNode{node: n, weight: even}
		}
	}
	return &Balancer{nodes: nodes, metrics: sink}
}

// Insert appends req to the buffer. O(1).
func (b *Balancer) Insert(req transport.EnqueueRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer = append(b.buffer, req)
}

// BufferLen reports how many requests are currently buffered.
func (b *Balancer) BufferLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffer)
}

// Weights returns a snapshot of the current node list in order, for
// tests and introspection.
func (b *Balancer) Weights() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]float64, len(b.nodes))
	for i, n := range b.nodes {
		out[i] = n.weight
	}
	return out
}

// NodeCount reports how many nodes are currently in the weighted list.
func (b *Balancer) NodeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.nodes)
}

// Distribute dispatches buffered requests against each node's quota,
// quota = floor(len(nodes) * weight) -- deliberately scaled by node
// count rather than buffer length; see DESIGN.md. Every 100th call
// triggers RefreshWeights first. Returns ErrDispatchFailed on the first
// RPC failure, leaving all remaining buffered requests untouched.
func (b *Balancer) Distribute(ctx context.Context) error {
	b.mu.Lock()
	b.cyclesSinceRefresh++
	needsRefresh := b.cyclesSinceRefresh >= 100
	if needsRefresh {
		b.cyclesSinceRefresh = 0
	}
	b.mu.Unlock()

	if needsRefresh {
		b.RefreshWeights(ctx)
	}

	b.mu.Lock()
	nodes := append([]weightedNode(nil), b.nodes...)
	b.mu.Unlock()

	for _, n := range nodes {
		quota := int(math.Floor(float64(len(nodes)) * n.weight))
		for i := 0; i < quota; i++ {
			req, ok := b.popOne()
			if !ok {
				return nil
			}
			callCtx, cancel := context.WithTimeout(ctx, DialTimeout)
			_, err := n.node.Leader.EnqueueJob(callCtx, req)
			cancel()
			if err != nil {
				b.metrics.Inc("distribute.dispatch_failed", 1)
				return ErrDispatchFailed
			}
			b.metrics.Inc("distribute.dispatched", 1)
		}
	}
	return nil
}

func (b *Balancer) popOne() (transport.EnqueueRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buffer) == 0 {
		return transport.EnqueueRequest{}, false
	}
	req := b.buffer[0]
	b.buffer = b.buffer[1:]
	return req, true
}

// RefreshWeights probes every current node, drops any whose probe fails,
// computes normalized weights from the survivors' raw scores, and
// installs the result sorted descending by weight.
func (b *Balancer) RefreshWeights(ctx context.Context) {
	b.mu.Lock()
	nodes := append([]weightedNode(nil), b.nodes...)
	b.mu.Unlock()

	type scored struct {
		node Node
		raw  float64
	}
	var survivors []scored
	var total float64

	for _, n := range nodes {
		report, err := health.NewProber(n.node.Health).Probe(ctx)
		if err != nil {
			continue
		}
		raw := computeRawWeight(report)
		survivors = append(survivors, scored{node: n.node, raw: raw})
		total += raw
	}

	newNodes := make([]weightedNode, 0, len(survivors))
	if total > 0 {
		for _, s := range survivors {
			newNodes = append(newNodes, weightedNode{node: s.node, weight: s.raw / total})
		}
	}
	sort.Slice(newNodes, func(i, j int) bool { return newNodes[i].weight > newNodes[j].weight })

	b.mu.Lock()
	b.nodes = newNodes
	b.mu.Unlock()
}

// computeRawWeight is the raw-weight step of RefreshWeights, overridable
// in tests that want to supply raw weights directly rather than derive
// them from a probed Report.
var computeRawWeight = rawWeight

// rawWeight implements raw = round(((1-cpu)/100)*((1-mem)/100)*((1-qdepth)/100)*100)/100,
// rewarding idle nodes. response_time is intentionally unused.
func rawWeight(r health.Report) float64 {
	cpuTerm := (1 - r.CPUUtilization) / 100
	memTerm := (1 - r.MemoryUsage) / 100
	qTerm := (1 - float64(r.QueueDepth)) / 100
	raw := cpuTerm * memTerm * qTerm * 100
	return math.Round(raw) / 100
}
