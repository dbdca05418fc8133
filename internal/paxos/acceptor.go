// Package paxos implements a single-decree prepare/accept/commit round:
// Leader drives the round from the leader side, Acceptor answers it from
// the follower side, generalized from EPaxos's per-instance dependency
// graph down to a single active round per follower — one round in
// flight at a time, since the leader's coarse lock already serializes
// rounds.
package paxos

import (
	"sync"

	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/heap"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// BallotState is the per-follower Paxos ballot state. Invariant:
// PromisedProposal >= AcceptedProposal. AcceptedValue is defined iff
// AcceptedProposal > 0 and not yet committed.
type BallotState struct {
	PromisedProposal uint64
	AcceptedProposal uint64
	AcceptedValue    *transport.Job
}

// Acceptor is the follower-side state machine. One lock protects both the
// ballot state and the local heap, held for the duration of each
// prepare/accept/commit handler.
type Acceptor struct {
	mu    sync.Mutex
	state BallotState
	clock *clock.Lamport
	heap  *heap.AgingHeap
}

// NewAcceptor returns a follower acceptor in the Idle state
// (promised_proposal = accepted_proposal = 0, accepted_value = none).
func NewAcceptor(clk *clock.Lamport, h *heap.AgingHeap) *Acceptor {
	return &Acceptor{clock: clk, heap: h}
}

// Prepare handles PaxosService.Prepare. A follower promises iff
// n > promised_proposal (strict), adopting promised_proposal := n.
func (a *Acceptor) Prepare(n uint64) (promised bool, highest uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clock.Tick()

	if n > a.state.PromisedProposal {
		a.state.PromisedProposal = n
		return true, a.state.PromisedProposal
	}
	return false, a.state.PromisedProposal
}

// Accept handles PaxosService.Accept. A follower accepts iff
// n >= promised_proposal — the deliberate asymmetry with Prepare's strict
// '>' that lets the current round's proposer accept with the number it
// just promised.
func (a *Acceptor) Accept(n uint64, job transport.Job) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clock.Tick()

	if n < a.state.PromisedProposal {
		return false
	}
	a.state.AcceptedProposal = n
	jobCopy := job
	a.state.AcceptedValue = &jobCopy
	return true
}

// Commit handles PaxosService.Commit. On commit=true with a matching
// accepted_value for n, the follower inserts the job into its heap at its
// own current logical tick and clears accepted_value. On commit=false the
// accepted value is discarded.
func (a *Acceptor) Commit(n uint64, commit bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	tick := a.clock.Tick()

	if a.state.AcceptedValue == nil || a.state.AcceptedProposal != n {
		return
	}

	if commit {
		job := a.state.AcceptedValue
		a.heap.Insert(job.Priority, job.JobID, tick)
	}
	a.state.AcceptedValue = nil
}

// Snapshot returns a copy of the current ballot state, for tests and
// introspection.
func (a *Acceptor) Snapshot() BallotState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// RecomputeAging decays every live node's effective priority against now
// and re-establishes heap order, under the same lock Commit holds while
// touching the heap. Meant to be called on a background interval so
// aging keeps advancing between commits.
func (a *Acceptor) RecomputeAging(now uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.heap.Recompute(now)
}
