package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Client dials a single remote node address on demand. Unlike the
// teacher's pooled RemoteNode, each call here opens and closes its own
// connection: the 10ms per-RPC deadline makes connection reuse not worth
// the complication, and every call already pays a dial
// cost comparable to the deadline on a LAN. Retained as a single place to
// swap in pooling later (see DESIGN.md).
type Client struct {
	Addr string
}

// NewClient returns a Client bound to addr (host:port).
func NewClient(addr string) *Client {
	return &Client{Addr: addr}
}

// Call dials Addr, sends (kind, req) framed, and decodes the single
// response envelope into resp. ctx's deadline governs both the dial and
// the round trip.
func (c *Client) Call(ctx context.Context, kind Kind, req interface{}, resp interface{}) error {
	deadline, ok := ctx.Deadline()
	dialTimeout := 10 * time.Millisecond
	if ok {
		if d := time.Until(deadline); d > 0 {
			dialTimeout = d
		}
	}

	conn, err := net.DialTimeout("tcp", c.Addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", c.Addr, err)
	}
	defer conn.Close()

	if ok {
		conn.SetDeadline(deadline)
	}

	bc := NewBufferedConn(conn)
	if err := WriteMessage(bc.W, kind, req); err != nil {
		return fmt.Errorf("transport: write request: %w", err)
	}
	if err := bc.W.Flush(); err != nil {
		return fmt.Errorf("transport: flush request: %w", err)
	}

	respKind, payload, err := ReadMessage(bc.R)
	if err != nil {
		return fmt.Errorf("transport: read response: %w", err)
	}
	if respKind != kind {
		return fmt.Errorf("transport: unexpected response kind %q for request %q", respKind, kind)
	}
	return DecodePayload(payload, resp)
}
