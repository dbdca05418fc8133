// Command leader runs a single replication-engine leader node: it hosts
// JobService and NodeHealthService over the binary RPC transport,
// drives Paxos rounds against the configured followers, and serves
// /dequeue, /dequeue/{amount}, /update over HTTP against its own heap.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	logging "github.com/op/go-logging"

	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/cluster"
	"github.com/hayley-d/distributed-priority-queue/internal/config"
	"github.com/hayley-d/distributed-priority-queue/internal/health"
	"github.com/hayley-d/distributed-priority-queue/internal/heap"
	"github.com/hayley-d/distributed-priority-queue/internal/httpapi"
	"github.com/hayley-d/distributed-priority-queue/internal/jobstore"
	"github.com/hayley-d/distributed-priority-queue/internal/metrics"
	"github.com/hayley-d/distributed-priority-queue/internal/paxos"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

var logger = logging.MustGetLogger("leader")

var (
	agingFactor    = flag.Float64("aging-factor", 0.5, "aging coefficient applied to this leader's heap")
	rpcAddr        = flag.String("rpc-addr", ":9000", "address this leader's RPC server binds")
	statsdAddr     = flag.String("statsd-addr", "", "statsd daemon address; empty disables metrics")
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
		logger.Fatalf("leader %d: %v", identity, err)
	}

	store, err := jobstore.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("leader %d: %v", identity, err)
	}
	defer store.Close()

	var sink metrics.Sink = metrics.Noop{}
	if *statsdAddr != "" {
		statsdClient, err := metrics.New(*statsdAddr, fmt.Sprintf("leader.%d", identity))
		if err != nil {
			logger.Warningf("leader %d: metrics disabled: %v", identity, err)
		} else {
			defer statsdClient.Close()
			sink = statsdClient
		}
	}

	followers := make([]cluster.FollowerHandle, len(cfg.FollowerAddrs))
	for i, addr := range cfg.FollowerAddrs {
		followers[i] = cluster.NewRemoteFollower(addr)
	}

	clk := clock.New()
	h := heap.New(*agingFactor)
	state := paxos.NewNodeState(clk, followers, store, h, sink)
	leader := paxos.NewLeader(state)

	rpcServer := &transport.Server{
		Addr: *rpcAddr,
		Handlers: transport.Handlers{
			Job:    &paxos.LeaderService{Leader: leader},
			Health: health.NewService(clk),
		},
	}

	go func() {
		logger.Infof("leader %d: rpc listening on %s", identity, *rpcAddr)
		if err := rpcServer.ListenAndServe(); err != nil {
			logger.Fatalf("leader %d: rpc server: %v", identity, err)
		}
	}()

	go runRecomputeLoop(state, clk)

	router := httpapi.NewNodeRouter(h, store, clk)
	logger.Infof("leader %d: http listening on %s", identity, cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		logger.Fatalf("leader %d: http server: %v", identity, err)
	}
}

// runRecomputeLoop ages the heap on a fixed interval so priorities keep
// decaying between enqueue rounds, not only when an HTTP request happens
// to touch the heap.
func runRecomputeLoop(state *paxos.NodeState, clk *clock.Lamport) {
	ticker := time.NewTicker(*recomputeEvery)
	defer ticker.Stop()
	for range ticker.C {
		state.RecomputeAging(clk.Now())
	}
}
