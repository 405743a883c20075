// Package client sends single requests to a running orchestrator server.
package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/colonyops/orchestraterm/internal/protocol"
)

// DefaultTimeout bounds dialing and the request round trip when no
// timeout is configured.
const DefaultTimeout = 5 * time.Second

// Client dials the server once per call.
type Client struct {
	addr    string
	timeout time.Duration
}

// New returns a client for addr. A non-positive timeout uses DefaultTimeout.
func New(addr string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{addr: addr, timeout: timeout}
}

// Addr returns the server address the client dials.
func (c *Client) Addr() string {
	return c.addr
}

// Call sends req and waits for its response. Transport and decoding
// failures are returned as errors; an ok=false reply is returned as a
// value, see protocol.Response.AsError.
func (c *Client) Call(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	line, err := protocol.Encode(req)
	if err != nil {
		return protocol.Response{}, err
	}
	return c.CallRaw(ctx, line)
}

// CallRaw sends an already encoded request line. The server validates it.
func (c *Client) CallRaw(ctx context.Context, line []byte) (protocol.Response, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return protocol.Response{}, errors.New("empty request")
	}
	if bytes.IndexByte(line, '\n') >= 0 {
		return protocol.Response{}, errors.New("request must be a single line")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("connect to %s: %w", c.addr, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := conn.Write(append(line, '\n')); err != nil {
		return protocol.Response{}, fmt.Errorf("send request: %w", err)
	}

	raw, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && len(raw) == 0 {
		return protocol.Response{}, fmt.Errorf("read response: %w", err)
	}
	return protocol.DecodeResponse(raw)
}
