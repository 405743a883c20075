package client

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/orchestraterm/internal/protocol"
)

// fakeServer answers every line with reply and captures what it received.
// An empty reply leaves the client waiting until the test ends.
func fakeServer(t *testing.T, reply string) (addr string, received <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan string, 8)
	done := t.Context().Done()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer func() { _ = conn.Close() }()
				line, err := bufio.NewReader(conn).ReadString('\n')
				if err != nil {
					return
				}
				got <- line
				if reply == "" {
					<-done
					return
				}
				_, _ = conn.Write([]byte(reply + "\n"))
			}()
		}
	}()

	return ln.Addr().String(), got
}

func TestCall(t *testing.T) {
	addr, received := fakeServer(t, `{"ok":true,"message":"pong","sessions":["default"],"teams":[],"tasks":[],"messages":[],"usage":null}`)

	resp, err := New(addr, time.Second).Call(context.Background(), &protocol.Ping{})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "pong", resp.Message)
	assert.Equal(t, []string{"default"}, resp.Sessions)
	assert.Equal(t, "{\"type\":\"ping\"}\n", <-received)
}

func TestCall_ErrorResponseIsAValue(t *testing.T) {
	addr, _ := fakeServer(t, `{"ok":false,"message":"unknown team: x"}`)

	resp, err := New(addr, time.Second).Call(context.Background(), &protocol.TeamUsage{TeamID: "x"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	require.Error(t, resp.AsError())
	assert.Equal(t, "unknown team: x", resp.AsError().Error())
	assert.NotNil(t, resp.Teams)
}

func TestCall_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = New(addr, time.Second).Call(context.Background(), &protocol.Ping{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to")
}

func TestCall_TimesOutWithoutReply(t *testing.T) {
	addr, _ := fakeServer(t, "")

	start := time.Now()
	_, err := New(addr, 200*time.Millisecond).Call(context.Background(), &protocol.Ping{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestCallRaw_RejectsBadInput(t *testing.T) {
	c := New("127.0.0.1:1", time.Second)

	_, err := c.CallRaw(context.Background(), []byte("   "))
	require.Error(t, err)

	_, err = c.CallRaw(context.Background(), []byte("{\"type\":\"ping\"}\n{\"type\":\"ping\"}"))
	require.Error(t, err)
}

func TestNew_DefaultTimeout(t *testing.T) {
	c := New("127.0.0.1:7899", 0)
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, "127.0.0.1:7899", c.Addr())
}
