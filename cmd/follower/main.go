// Command follower runs a single Paxos follower/acceptor node: it hosts
// PaxosService (prepare/accept/commit) and NodeHealthService over the
// binary RPC transport, replies to client reads, and serves /dequeue,
// /dequeue/{amount}, /update over HTTP.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	logging "github.com/op/go-logging"

	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/config"
	"github.com/hayley-d/distributed-priority-queue/internal/health"
	"github.com/hayley-d/distributed-priority-queue/internal/heap"
	"github.com/hayley-d/distributed-priority-queue/internal/httpapi"
	"github.com/hayley-d/distributed-priority-queue/internal/jobstore"
	"github.com/hayley-d/distributed-priority-queue/internal/paxos"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

var logger = logging.MustGetLogger("follower")

var (
	agingFactor    = flag.Float64("aging-factor", 0.5, "aging coefficient applied to this follower's heap")
	recomputeEvery = flag.Duration("recompute-interval", 50*time.Millisecond, "interval between background aging recompute ticks")
)

func main() {
	flag.Parse()

	identity, err := config.Identity(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("follower %d: %v", identity, err)
	}
	if int(identity) >= len(cfg.FollowerAddrs) {
		logger.Fatalf("follower %d: no FOLLOWER%d address configured", identity, identity)
	}
	rpcAddr := cfg.FollowerAddrs[identity]

	store, err := jobstore.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("follower %d: %v", identity, err)
	}
	defer store.Close()

	clk := clock.New()
	h := heap.New(*agingFactor)
	acceptor := paxos.NewAcceptor(clk, h)

	rpcServer := &transport.Server{
		Addr: rpcAddr,
		Handlers: transport.Handlers{
			Paxos:  &paxos.FollowerService{Acceptor: acceptor},
			Health: health.NewService(clk),
		},
	}

	go func() {
		logger.Infof("follower %d: rpc listening on %s", identity, rpcAddr)
		if err := rpcServer.ListenAndServe(); err != nil {
			logger.Fatalf("follower %d: rpc server: %v", identity, err)
		}
	}()

	go runRecomputeLoop(acceptor, clk)

	router := httpapi.NewNodeRouter(h, store, clk)
	logger.Infof("follower %d: http listening on %s", identity, cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		logger.Fatalf("follower %d: http server: %v", identity, err)
	}
}

// runRecomputeLoop ages the heap on a fixed interval so priorities keep
// decaying between commits, not only when an HTTP request happens to
// touch the heap.
func runRecomputeLoop(acceptor *paxos.Acceptor, clk *clock.Lamport) {
	ticker := time.NewTicker(*recomputeEvery)
	defer ticker.Stop()
	for range ticker.C {
		acceptor.RecomputeAging(clk.Now())
	}
}
