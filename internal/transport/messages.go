package transport

// Job is the wire representation of a durable job, used by JobService
// responses.
type Job struct {
	JobID   uint64
	Priority uint32
	Payload  []byte
}

// EnqueueRequest is JobService.EnqueueJob's request.
type EnqueueRequest struct {
	Priority uint32
	Payload  []byte
}

// JobRequest is JobService.GetTask's request.
type JobRequest struct {
	JobID uint64
}

// JobResponse is JobService.GetTask's response.
type JobResponse struct {
	Job   Job
	Found bool
}

// NodeHealthRequest is NodeHealthService.GetNodeHealth's (empty) request.
type NodeHealthRequest struct{}

// NodeHealthResponse reports a node's health. ResponseTime is retained for
// forward compatibility: collected, never consumed by the weight formula.
type NodeHealthResponse struct {
	CPUUtilization float64
	MemoryUsage    float64
	QueueDepth     uint64
	ResponseTime   float64
}

// PaxosPrepare is PaxosService.Prepare's request.
type PaxosPrepare struct {
	ProposalNumber uint64
}

// PaxosPromise is PaxosService.Prepare's response.
type PaxosPromise struct {
	ProposalNumber  uint64
	HighestProposal uint64
	Promise         bool
}

// PaxosAccept is PaxosService.Accept's request.
type PaxosAccept struct {
	ProposalNumber uint64
	ProposedJob    Job
}

// PaxosAck is PaxosService.Accept's response.
type PaxosAck struct {
	ProposalNumber uint64
	Accepted       bool
}

// PaxosCommit is PaxosService.Commit's request.
type PaxosCommit struct {
	ProposalNumber uint64
	Commit         bool
}

// PaxosCommitResponse is PaxosService.Commit's response.
type PaxosCommitResponse struct {
	ProposalNumber uint64
}
