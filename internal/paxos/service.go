package paxos

import (
	"context"

	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// FollowerService adapts an Acceptor to transport.PaxosService, the RPC
// entry point a follower process hosts.
type FollowerService struct {
	Acceptor *Acceptor
}

var _ transport.PaxosService = (*FollowerService)(nil)

func (s *FollowerService) Prepare(_ context.Context, req transport.PaxosPrepare) (transport.PaxosPromise, error) {
	promised, highest := s.Acceptor.Prepare(req.ProposalNumber)
	return transport.PaxosPromise{
		ProposalNumber:  req.ProposalNumber,
		HighestProposal: highest,
		Promise:         promised,
	}, nil
}

func (s *FollowerService) Accept(_ context.Context, req transport.PaxosAccept) (transport.PaxosAck, error) {
	accepted := s.Acceptor.Accept(req.ProposalNumber, req.ProposedJob)
	return transport.PaxosAck{
		ProposalNumber: req.ProposalNumber,
		Accepted:       accepted,
	}, nil
}

func (s *FollowerService) Commit(_ context.Context, req transport.PaxosCommit) (transport.PaxosCommitResponse, error) {
	s.Acceptor.Commit(req.ProposalNumber, req.Commit)
	return transport.PaxosCommitResponse{ProposalNumber: req.ProposalNumber}, nil
}
