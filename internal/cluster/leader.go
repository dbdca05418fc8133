package cluster

import (
	"context"

	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// LeaderHandle is what the load balancer needs from a leader: a single
// enqueue entry point. Separate from FollowerHandle because a process
// never needs both capability sets for the same remote peer in this
// design: leaders and followers are distinct roles.
type LeaderHandle interface {
	Addr() string
	EnqueueJob(ctx context.Context, req transport.EnqueueRequest) (transport.Job, error)
}

// RemoteLeader is a LeaderHandle backed by a real transport.Client.
type RemoteLeader struct {
	addr   string
	client *transport.Client
}

// NewRemoteLeader returns a LeaderHandle dialing addr on every call.
func NewRemoteLeader(addr string) *RemoteLeader {
	return &RemoteLeader{addr: addr, client: transport.NewClient(addr)}
}

func (l *RemoteLeader) Addr() string { return l.addr }

func (l *RemoteLeader) EnqueueJob(ctx context.Context, req transport.EnqueueRequest) (transport.Job, error) {
	var resp transport.Job
	err := l.client.Call(ctx, transport.KindEnqueueJob, req, &resp)
	return resp, err
}
