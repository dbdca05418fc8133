package paxos

import (
	"context"

	"github.com/hayley-d/distributed-priority-queue/internal/jobstore"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// LeaderService adapts a Leader to transport.JobService, the RPC entry
// point the enqueue manager's load balancer and consumers dial.
type LeaderService struct {
	Leader *Leader
}

var _ transport.JobService = (*LeaderService)(nil)

func (s *LeaderService) EnqueueJob(ctx context.Context, req transport.EnqueueRequest) (transport.Job, error) {
	return s.Leader.EnqueueJob(ctx, req.Priority, req.Payload)
}

func (s *LeaderService) GetTask(ctx context.Context, req transport.JobRequest) (transport.JobResponse, error) {
	job, err := s.Leader.GetTask(ctx, req.JobID)
	if err == jobstore.ErrNotFound {
		return transport.JobResponse{Found: false}, nil
	}
	if err != nil {
		return transport.JobResponse{}, err
	}
	return transport.JobResponse{
		Job: transport.Job{
			JobID:    job.JobID,
			Priority: job.Priority,
			Payload:  job.Payload,
		},
		Found: true,
	}, nil
}
