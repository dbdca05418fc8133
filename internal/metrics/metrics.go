// Package metrics wraps github.com/cactus/go-statsd-client/v5 for the
// counters and timings threaded through the replication engine's
// prepare/accept/commit path.
package metrics

import (
	"time"

	statsd "github.com/cactus/go-statsd-client/v5/statsd"
)

// Sink is the narrow counter/timing interface every component depends on,
// so tests can substitute a no-op sink without a real statsd daemon.
type Sink interface {
	Inc(stat string, value int64)
	Timing(stat string, d time.Duration)
}

// Client wraps a statsd.Statter.
type Client struct {
	statter statsd.Statter
}

// New dials addr (host:port of a statsd daemon) with the given stat
// prefix.
func New(addr, prefix string) (*Client, error) {
	statter, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
		Address: addr,
		Prefix:  prefix,
	})
	if err != nil {
		return nil, err
	}
	return &Client{statter: statter}, nil
}

func (c *Client) Inc(stat string, value int64) {
	_ = c.statter.Inc(stat, value, 1.0)
}

func (c *Client) Timing(stat string, d time.Duration) {
	_ = c.statter.TimingDuration(stat, d, 1.0)
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.statter.Close()
}

// Noop is a Sink that discards everything, used where no statsd daemon is
// configured (e.g. in tests, or a single-process demo run).
type Noop struct{}

func (Noop) Inc(string, int64)           {}
func (Noop) Timing(string, time.Duration) {}
