package health

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hayley-d/distributed-priority-queue/internal/clock"
	"github.com/hayley-d/distributed-priority-queue/internal/transport"
)

// Service implements transport.NodeHealthService on the node being
// probed: it samples its own host CPU and memory via gopsutil and
// reports its current logical-clock value in place of queue depth and
// response time, per the probe contract.
type Service struct {
	Clock *clock.Lamport
}

var _ transport.NodeHealthService = (*Service)(nil)

// NewService returns a health Service ticking clk on every probe.
func NewService(clk *clock.Lamport) *Service {
	return &Service{Clock: clk}
}

func (s *Service) GetNodeHealth(ctx context.Context, _ transport.NodeHealthRequest) (transport.NodeHealthResponse, error) {
	cpuFrac, err := sampleCPU(ctx)
	if err != nil {
		return transport.NodeHealthResponse{}, err
	}
	memFrac, err := sampleMemory()
	if err != nil {
		return transport.NodeHealthResponse{}, err
	}

	tick := s.Clock.Tick()
	return transport.NodeHealthResponse{
		CPUUtilization: cpuFrac,
		MemoryUsage:    memFrac,
		QueueDepth:     tick,
		ResponseTime:   float64(tick),
	}, nil
}

func sampleCPU(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0] / 100, nil
}

func sampleMemory() (float64, error) {
	stat, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return stat.UsedPercent / 100, nil
}
