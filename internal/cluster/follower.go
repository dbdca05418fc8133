// Package cluster holds the remote-node handles the replication engine
// and the load balancer dispatch through: a handle wraps a
// transport.Client and exposes only the capability set its caller needs.
package cluster

import (
	"context"

	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// FollowerHandle is what a leader's replication engine needs from a
// follower: the three Paxos phases. Implemented via interface
// abstraction so tests can substitute a mock without a real socket.
type FollowerHandle interface {
	Addr() string
	Prepare(ctx context.Context, req transport.PaxosPrepare) (transport.PaxosPromise, error)
	Accept(ctx context.Context, req transport.PaxosAccept) (transport.PaxosAck, error)
	Commit(ctx context.Context, req transport.PaxosCommit) (transport.PaxosCommitResponse, error)
}

// RemoteFollower is a FollowerHandle backed by a real transport.Client.
type RemoteFollower struct {
	addr   string
	client *transport.Client
}

// NewRemoteFollower returns a FollowerHandle dialing addr on every call.
func NewRemoteFollower(addr string) *RemoteFollower {
	return &RemoteFollower{addr: addr, client: transport.NewClient(addr)}
}

func (f *RemoteFollower) Addr() string { return f.addr }

func (f *RemoteFollower) Prepare(ctx context.Context, req transport.PaxosPrepare) (transport.PaxosPromise, error) {
	var resp transport.PaxosPromise
	err := f.client.Call(ctx, transport.KindPaxosPrepare, req, &resp)
	return resp, err
}

func (f *RemoteFollower) Accept(ctx context.Context, req transport.PaxosAccept) (transport.PaxosAck, error) {
	var resp transport.PaxosAck
	err := f.client.Call(ctx, transport.KindPaxosAccept, req, &resp)
	return resp, err
}

func (f *RemoteFollower) Commit(ctx context.Context, req transport.PaxosCommit) (transport.PaxosCommitResponse, error) {
	var resp transport.PaxosCommitResponse
	err := f.client.Call(ctx, transport.KindPaxosCommit, req, &resp)
	return resp, err
}
