package cluster

import (
	"context"

	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// HealthHandle is what the node health probe needs from a remote node.
type HealthHandle interface {
	Addr() string
	GetNodeHealth(ctx context.Context, req transport.NodeHealthRequest) (transport.NodeHealthResponse, error)
}

// RemoteHealth is a HealthHandle backed by a real transport.Client.
type RemoteHealth struct {
	addr   string
	client *transport.Client
}

// NewRemoteHealth returns a HealthHandle dialing addr on every call.
func NewRemoteHealth(addr string) *RemoteHealth {
	return &RemoteHealth{addr: addr, client: transport.NewClient(addr)}
}

func (h *RemoteHealth) Addr() string { return h.addr }

func (h *RemoteHealth) GetNodeHealth(ctx context.Context, req transport.NodeHealthRequest) (transport.NodeHealthResponse, error) {
	var resp transport.NodeHealthResponse
	err := h.client.Call(ctx, transport.KindGetNodeHealth, req, &resp)
	return resp, err
}
