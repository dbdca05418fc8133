package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/op/go-logging"
)

var logger = logging.MustGetLogger("transport")

// JobService is the capability set a leader exposes to enqueue managers
// and consumers. Implemented via interface abstraction per the redesign
// note against polymorphic RPC handlers through inheritance.
type JobService interface {
	EnqueueJob(ctx context.Context, req EnqueueRequest) (Job, error)
	GetTask(ctx context.Context, req JobRequest) (JobResponse, error)
}

// NodeHealthService is exposed by every node for the load balancer's
// health probe.
type NodeHealthService interface {
	GetNodeHealth(ctx context.Context, req NodeHealthRequest) (NodeHealthResponse, error)
}

// PaxosService is exposed by every follower for the leader's replication
// engine.
type PaxosService interface {
	Prepare(ctx context.Context, req PaxosPrepare) (PaxosPromise, error)
	Accept(ctx context.Context, req PaxosAccept) (PaxosAck, error)
	Commit(ctx context.Context, req PaxosCommit) (PaxosCommitResponse, error)
}

// Handlers bundles whichever of the three service capability sets a
// process hosts. A leader hosts JobService+NodeHealthService; a follower
// hosts PaxosService+NodeHealthService. A request for a service whose
// field is nil is logged as not hosted and the connection is closed
// without a response, rather than panicking.
type Handlers struct {
	Job    JobService
	Health NodeHealthService
	Paxos  PaxosService
}

// Server accepts framed RPC connections and dispatches by Kind to
// whichever Handlers field implements it.
type Server struct {
	Addr     string
	Handlers Handlers

	listener net.Listener
}

// ListenAndServe binds Addr and serves connections until the listener is
// closed. One goroutine per accepted connection, one per RPC handler.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("transport: listen %s: %w", s.Addr, err)
	}
	s.listener = ln
	logger.Infof("rpc server listening on %s", s.Addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.serveConn(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(50 * time.Millisecond))

	bc := NewBufferedConn(conn)
	kind, payload, err := ReadMessage(bc.R)
	if err != nil {
		logger.Warningf("rpc read error from %s: %v", conn.RemoteAddr(), err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	resp, respErr := s.dispatch(ctx, kind, payload)
	if respErr != nil {
		logger.Warningf("rpc handler error for %s: %v", kind, respErr)
		return
	}

	if err := WriteMessage(bc.W, kind, resp); err != nil {
		logger.Warningf("rpc write error to %s: %v", conn.RemoteAddr(), err)
		return
	}
	if err := bc.W.Flush(); err != nil {
		logger.Warningf("rpc flush error to %s: %v", conn.RemoteAddr(), err)
	}
}

func (s *Server) dispatch(ctx context.Context, kind Kind, payload []byte) (interface{}, error) {
	switch kind {
	case KindEnqueueJob:
		if s.Handlers.Job == nil {
			return nil, fmt.Errorf("transport: JobService not hosted")
		}
		var req EnqueueRequest
		if err := DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Handlers.Job.EnqueueJob(ctx, req)

	case KindGetTask:
		if s.Handlers.Job == nil {
			return nil, fmt.Errorf("transport: JobService not hosted")
		}
		var req JobRequest
		if err := DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Handlers.Job.GetTask(ctx, req)

	case KindGetNodeHealth:
		if s.Handlers.Health == nil {
			return nil, fmt.Errorf("transport: NodeHealthService not hosted")
		}
		var req NodeHealthRequest
		if err := DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Handlers.Health.GetNodeHealth(ctx, req)

	case KindPaxosPrepare:
		if s.Handlers.Paxos == nil {
			return nil, fmt.Errorf("transport: PaxosService not hosted")
		}
		var req PaxosPrepare
		if err := DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Handlers.Paxos.Prepare(ctx, req)

	case KindPaxosAccept:
		if s.Handlers.Paxos == nil {
			return nil, fmt.Errorf("transport: PaxosService not hosted")
		}
		var req PaxosAccept
		if err := DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Handlers.Paxos.Accept(ctx, req)

	case KindPaxosCommit:
		if s.Handlers.Paxos == nil {
			return nil, fmt.Errorf("transport: PaxosService not hosted")
		}
		var req PaxosCommit
		if err := DecodePayload(payload, &req); err != nil {
			return nil, err
		}
		return s.Handlers.Paxos.Commit(ctx, req)

	default:
		return nil, fmt.Errorf("transport: unknown rpc kind %q", kind)
	}
}
