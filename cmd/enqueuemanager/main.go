// Command enqueuemanager runs the client-facing front: it accepts
// POST /enqueue over HTTP, buffers requests into a weighted load
// balancer, and periodically distributes them across the configured
// leader nodes.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	logging "github.com/op/go-logging"

	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/cluster"
	"github.com/hayley-d/distributed-priority-queue/internal/config"
	"github.com/hayley-d/distributed-priority-queue/internal/httpapi"
	"github.com/hayley-d/distributed-priority-queue/internal/loadbalancer"
	"github.com/hayley-d/distributed-priority-queue/internal/manager"
	"github.com/hayley-d/distributed-priority-queue/internal/metrics"
)

var logger = logging.MustGetLogger("enqueuemanager")

var (
	statsdAddr      = flag.String("statsd-addr", "", "statsd daemon address; empty disables metrics")
	distributeEvery = flag.Duration("distribute-interval", 5*time.Millisecond, "interval between distribute() cycles")
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
		logger.Fatalf("enqueuemanager %d: %v", identity, err)
	}
	if len(cfg.NodeAddrs) == 0 {
		logger.Fatalf("enqueuemanager %d: no NODE* leader addresses configured", identity)
	}

	var sink metrics.Sink = metrics.Noop{}
	if *statsdAddr != "" {
		statsdClient, err := metrics.New(*statsdAddr, fmt.Sprintf("enqueuemanager.%d", identity))
		if err != nil {
			logger.Warningf("enqueuemanager %d: metrics disabled: %v", identity, err)
		} else {
			defer statsdClient.Close()
			sink = statsdClient
		}
	}

	nodes := make([]loadbalancer.Node, len(cfg.NodeAddrs))
	for i, addr := range cfg.NodeAddrs {
		nodes[i] = loadbalancer.Node{
			Leader: cluster.NewRemoteLeader(addr),
			Health: cluster.NewRemoteHealth(addr),
		}
	}

	bal := loadbalancer.New(nodes, sink)
	front := manager.New(clock.New(), bal)

	go runDistributeLoop(bal)

	router := httpapi.NewManagerRouter(front)
	logger.Infof("enqueuemanager %d: http listening on %s", identity, cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		logger.Fatalf("enqueuemanager %d: http server: %v", identity, err)
	}
}

func runDistributeLoop(bal *loadbalancer.Balancer) {
	ticker := time.NewTicker(*distributeEvery)
	defer ticker.Stop()
	for range ticker.C {
		if err := bal.Distribute(context.Background()); err != nil {
			logger.Warningf("enqueuemanager: distribute cycle: %v", err)
		}
	}
}
