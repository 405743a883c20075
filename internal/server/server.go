// Package server exposes the engine state over a newline-delimited JSON
// TCP protocol. Each connection is served by its own goroutine; all of them
// share one engine.Guard, so requests are applied one at a time.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/orchestraterm/internal/core/engine"
	"github.com/colonyops/orchestraterm/internal/core/journal"
	"github.com/colonyops/orchestraterm/internal/core/logging"
	"github.com/colonyops/orchestraterm/internal/protocol"
	"github.com/colonyops/orchestraterm/pkg/kv"
	"github.com/colonyops/orchestraterm/pkg/randid"
)

// Persister writes the state to durable storage.
type Persister interface {
	Save(state *engine.State) error
}

// Options configures the listener.
type Options struct {
	Addr string
}

// Server accepts client connections and applies their requests to the
// guarded state.
type Server struct {
	opts      Options
	guard     *engine.Guard
	persister Persister
	journal   journal.Recorder
	log       zerolog.Logger

	conns *kv.Store[string, net.Conn]
	wg    sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
}

// New creates a server. A nil recorder disables the request journal.
func New(opts Options, guard *engine.Guard, persister Persister, rec journal.Recorder, log zerolog.Logger) *Server {
	if rec == nil {
		rec = journal.Nop{}
	}
	return &Server{
		opts:      opts,
		guard:     guard,
		persister: persister,
		journal:   rec,
		log:       log,
		conns:     kv.New[string, net.Conn](),
	}
}

// ListenAndServe binds the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. On the way out
// it closes live connections, waits for their handlers and persists the
// state one last time.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("server listening")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
	}()

	var (
		acceptErr error
		backoff   time.Duration
	)
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				acceptErr = fmt.Errorf("accept: %w", err)
				break
			}

			backoff = nextBackoff(backoff)
			s.log.Warn().Err(err).Dur("retry_in", backoff).Msg("accept failed")
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		id := randid.Generate(8)
		s.conns.Set(id, conn)
		s.wg.Add(1)
		go s.serveConn(ctx, id, conn)
	}

	return errors.Join(acceptErr, s.shutdown())
}

const maxAcceptBackoff = time.Second

// nextBackoff doubles the accept retry delay from 5ms up to one second.
func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	return min(2*d, maxAcceptBackoff)
}

// Addr returns the bound address, or "" before Serve is called.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// SetPaneLogLines changes how many lines are retained per pane.
func (s *Server) SetPaneLogLines(n int) error {
	return s.guard.Do(func(st *engine.State) error {
		st.PaneLogs().Resize(n)
		return nil
	})
}

func (s *Server) shutdown() error {
	for _, conn := range s.conns.Values() {
		_ = conn.Close()
	}
	s.wg.Wait()

	err := s.guard.Do(func(st *engine.State) error {
		return s.persister.Save(st)
	})
	if err != nil {
		return fmt.Errorf("final persist: %w", err)
	}

	s.log.Info().Msg("server stopped")
	return nil
}

func (s *Server) serveConn(ctx context.Context, id string, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.conns.Delete(id)
		_ = conn.Close()
	}()

	// Requests already read finish even when the server is shutting down.
	ctx = logging.WithConnID(context.WithoutCancel(ctx), id)
	s.log.Debug().Ctx(ctx).Str("remote", conn.RemoteAddr().String()).Int("open", s.conns.Len()).Msg("connection opened")

	reader := bufio.NewReader(conn)
	for {
		line, readErr := reader.ReadBytes('\n')
		// Blank lines get an invalid-request reply like any other.
		if len(line) > 0 {
			resp := s.handleLine(ctx, line)
			if err := writeResponse(conn, resp); err != nil {
				s.log.Debug().Ctx(ctx).Err(err).Msg("write response")
				return
			}
			if s.guard.Poisoned() {
				return
			}
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) && !errors.Is(readErr, net.ErrClosed) {
				s.log.Debug().Ctx(ctx).Err(readErr).Msg("read request")
			}
			s.log.Debug().Ctx(ctx).Msg("connection closed")
			return
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line []byte) protocol.Response {
	start := time.Now()

	req, err := protocol.Decode(line)
	if err != nil {
		s.log.Debug().Ctx(ctx).Err(err).Msg("invalid request")
		resp := protocol.Err("invalid request: " + err.Error())
		s.record(ctx, "invalid", "", resp, time.Since(start))
		return resp
	}

	return s.Handle(ctx, req)
}

func writeResponse(w io.Writer, resp protocol.Response) error {
	bits, err := protocol.EncodeResponse(resp)
	if err != nil {
		return err
	}
	_, err = w.Write(append(bits, '\n'))
	return err
}
