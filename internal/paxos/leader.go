package paxos

import (
	"context"
	"sync"
	"time"

	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/cluster"
	"github.com/hayley-d/distributed-priority-queue/internal/heap"
	"github.com/hayley-d/distributed-priority-queue/internal/jobstore"
	"github.com/hayley-d/distributed-priority-queue/internal/metrics"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// RPCTimeout is the per-RPC deadline every prepare/accept/commit call
// carries. Configurable for tests.
var RPCTimeout = 10 * time.Millisecond

// NodeState is the leader's coarse-locked state: clock, follower list,
// store handle, and its own live heap. One sync.Mutex protects all of it,
// held across the entire enqueue round (prepare/insert/accept/commit) —
// a deliberate simplification that caps round throughput to one in
// flight at a time.
type NodeState struct {
	mu        sync.Mutex
	Clock     *clock.Lamport
	Followers []cluster.FollowerHandle
	Store     jobstore.Store
	Heap      *heap.AgingHeap
	Metrics   metrics.Sink
}

// NewNodeState constructs a leader's NodeState.
func NewNodeState(clk *clock.Lamport, followers []cluster.FollowerHandle, store jobstore.Store, h *heap.AgingHeap, sink metrics.Sink) *NodeState {
	if sink == nil {
		sink = metrics.Noop{}
	}
	return &NodeState{
		Clock:     clk,
		Followers: followers,
		Store:     store,
		Heap:      h,
		Metrics:   sink,
	}
}

// Leader drives one prepare->accept->commit round per enqueue, collapsed
// from EPaxos's dependency-graph rounds down to a single decree per call.
type Leader struct {
	state *NodeState
}

// NewLeader returns a Leader driving rounds over state.
func NewLeader(state *NodeState) *Leader {
	return &Leader{state: state}
}

func majority(n int) int {
	return n/2 + 1
}

// EnqueueJob runs one full Paxos round for a new job: prepare across all
// followers, durable insert only after a successful prepare (so a doomed
// round never allocates a job_id), accept across all followers, then
// best-effort commit. Returns the committed Job on success.
func (l *Leader) EnqueueJob(ctx context.Context, priority uint32, payload []byte) (transport.Job, error) {
	s := l.state
	s.mu.Lock()
	defer s.mu.Unlock()

	proposalNumber := s.Clock.Tick()

	// phase 1: prepare
	if err := l.preparePhase(ctx, proposalNumber); err != nil {
		s.Metrics.Inc("enqueue.prepare.failed", 1)
		return transport.Job{}, PrepareFailedError{Cause: err}
	}

	// durable insert only after a successful prepare.
	jobID, err := s.Store.Insert(ctx, priority, payload)
	if err != nil {
		return transport.Job{}, err
	}
	job := transport.Job{JobID: jobID, Priority: priority, Payload: payload}

	// phase 2: accept
	if err := l.acceptPhase(ctx, proposalNumber, job); err != nil {
		s.Metrics.Inc("enqueue.accept.failed", 1)
		return transport.Job{}, ProposeFailedError{Cause: err}
	}

	// phase 3: commit, best effort across followers; the leader always
	// applies its own commit regardless of follower reachability.
	l.commitPhase(ctx, proposalNumber)

	now := s.Clock.Tick()
	s.Heap.Insert(job.Priority, job.JobID, now)
	s.Metrics.Inc("enqueue.success", 1)

	return job, nil
}

func (l *Leader) preparePhase(ctx context.Context, proposalNumber uint64) error {
	s := l.state
	type result struct {
		resp transport.PaxosPromise
		err  error
	}

	recv := make(chan result, len(s.Followers))
	for _, f := range s.Followers {
		go func(f cluster.FollowerHandle) {
			callCtx, cancel := context.WithTimeout(ctx, RPCTimeout)
			defer cancel()
			resp, err := f.Prepare(callCtx, transport.PaxosPrepare{ProposalNumber: proposalNumber})
			recv <- result{resp: resp, err: err}
		}(f)
	}

	need := majority(len(s.Followers) + 1)
	granted := 1 // the leader counts as a promise to itself
	received := 0
	timeout := time.After(RPCTimeout)

	for granted < need && received < len(s.Followers) {
		select {
		case r := <-recv:
			received++
			if r.err == nil && r.resp.Promise {
				granted++
			}
		case <-timeout:
			if granted >= need {
				return nil
			}
			return ErrConsensusFailed
		}
	}

	if granted < need {
		return ErrConsensusFailed
	}
	return nil
}

func (l *Leader) acceptPhase(ctx context.Context, proposalNumber uint64, job transport.Job) error {
	s := l.state
	type result struct {
		resp transport.PaxosAck
		err  error
	}

	recv := make(chan result, len(s.Followers))
	for _, f := range s.Followers {
		go func(f cluster.FollowerHandle) {
			callCtx, cancel := context.WithTimeout(ctx, RPCTimeout)
			defer cancel()
			resp, err := f.Accept(callCtx, transport.PaxosAccept{ProposalNumber: proposalNumber, ProposedJob: job})
			recv <- result{resp: resp, err: err}
		}(f)
	}

	need := majority(len(s.Followers) + 1)
	granted := 1
	received := 0
	timeout := time.After(RPCTimeout)

	for granted < need && received < len(s.Followers) {
		select {
		case r := <-recv:
			received++
			if r.err == nil && r.resp.Accepted {
				granted++
			}
		case <-timeout:
			if granted >= need {
				return nil
			}
			return ErrConsensusFailed
		}
	}

	if granted < need {
		return ErrConsensusFailed
	}
	return nil
}

// commitPhase fans commit out to every follower in parallel and waits until
// each call has returned or hit its RPCTimeout deadline. Failed commits are
// ignored: a majority already agreed on the value in the accept phase, so a
// follower that misses the commit message will simply need a future round
// (or an explicit prepare, out of scope for single-decree use here) to
// catch up.
func (l *Leader) commitPhase(ctx context.Context, proposalNumber uint64) {
	s := l.state
	var wg sync.WaitGroup
	wg.Add(len(s.Followers))
	for _, f := range s.Followers {
		go func(f cluster.FollowerHandle) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, RPCTimeout)
			defer cancel()
			_, _ = f.Commit(callCtx, transport.PaxosCommit{ProposalNumber: proposalNumber, Commit: true})
		}(f)
	}
	wg.Wait()
}

// GetTask reads a single durable job row through the store. Used by the
// JobService.GetTask RPC.
func (l *Leader) GetTask(ctx context.Context, jobID uint64) (jobstore.Job, error) {
	return l.state.Store.Select(ctx, jobID)
}

// RecomputeAging decays every live node's effective priority against now
// and re-establishes heap order, under the same lock EnqueueJob holds
// while touching the heap. Meant to be called on a background interval so
// aging keeps advancing between enqueue rounds.
func (s *NodeState) RecomputeAging(now uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Heap.Recompute(now)
}
