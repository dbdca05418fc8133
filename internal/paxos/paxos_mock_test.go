package paxos

import (
	"context"
	"time"

	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/heap"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// inprocessFollower wraps an Acceptor directly, bypassing sockets, so a
// Leader round can be driven deterministically.
type inprocessFollower struct {
	addr     string
	acceptor *Acceptor
	heap     *heap.AgingHeap

	// unreachable, when true, makes every call block until the caller's
	// context deadline expires, simulating a follower that always times out.
	unreachable bool
}

func newInprocessFollower(addr string) *inprocessFollower {
	h := heap.New(0)
	return &inprocessFollower{
		addr:     addr,
		acceptor: NewAcceptor(clock.New(), h),
		heap:     h,
	}
}

func (f *inprocessFollower) Addr() string { return f.addr }

func (f *inprocessFollower) block(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *inprocessFollower) Prepare(ctx context.Context, req transport.PaxosPrepare) (transport.PaxosPromise, error) {
	if f.unreachable {
		return transport.PaxosPromise{}, f.block(ctx)
	}
	promised, highest := f.acceptor.Prepare(req.ProposalNumber)
	return transport.PaxosPromise{ProposalNumber: req.ProposalNumber, HighestProposal: highest, Promise: promised}, nil
}

func (f *inprocessFollower) Accept(ctx context.Context, req transport.PaxosAccept) (transport.PaxosAck, error) {
	if f.unreachable {
		return transport.PaxosAck{}, f.block(ctx)
	}
	accepted := f.acceptor.Accept(req.ProposalNumber, req.ProposedJob)
	return transport.PaxosAck{ProposalNumber: req.ProposalNumber, Accepted: accepted}, nil
}

func (f *inprocessFollower) Commit(ctx context.Context, req transport.PaxosCommit) (transport.PaxosCommitResponse, error) {
	if f.unreachable {
		return transport.PaxosCommitResponse{}, f.block(ctx)
	}
	f.acceptor.Commit(req.ProposalNumber, req.Commit)
	return transport.PaxosCommitResponse{ProposalNumber: req.ProposalNumber}, nil
}

// shortRPCTimeout swaps RPCTimeout to a small value for the duration of a
// test, then restores it.
func shortRPCTimeout(d time.Duration) func() {
	prev := RPCTimeout
	RPCTimeout = d
	return func() { RPCTimeout = prev }
}
