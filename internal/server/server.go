// Package server is the TCP front-end: it accepts connections, reads
// RESP requests off each one, and hands the resulting argv to a
// Dispatcher. Grounded on the teacher's RedisServer.Start/acceptConnections/
// handleConnection, with the connection bookkeeping routed through
// serverstate.ClientRegistry instead of the teacher's sync.Map +
// atomic counters, and the goroutine lifecycle switched to
// golang.org/x/sync/errgroup.
package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"

	"golang.org/x/sync/errgroup"

	"pika/internal/dispatch"
	"pika/internal/logging"
	"pika/internal/serverstate"
	"pika/internal/wire"
)

// Server owns the listener and the connection-handling goroutine group.
type Server struct {
	addr       string
	dispatcher *dispatch.Dispatcher
	state      *serverstate.State
	log        *logging.Logger

	listener net.Listener
}

// New builds a Server bound to addr, ready for Serve.
func New(addr string, d *dispatch.Dispatcher, state *serverstate.State, log *logging.Logger) *Server {
	return &Server{addr: addr, dispatcher: d, state: state, log: log}
}

// Serve listens on s.addr and handles connections until ctx is canceled
// or Close is called, matching the teacher's Start/acceptConnections
// split but folded into one errgroup-managed loop.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.log.Infof("listening on %s", s.addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-gctx.Done():
					return nil
				default:
					return fmt.Errorf("server: accept: %w", err)
				}
			}
			go s.handleConnection(conn)
		}
	})

	return g.Wait()
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	info := s.state.Registry().Register(conn.RemoteAddr().String(), serverstate.ClientNormal, func() { conn.Close() })
	defer s.state.Registry().Unregister(info.ID)

	r := bufio.NewReader(conn)
	for {
		argv, err := wire.ReadArgs(r)
		if err != nil {
			if err != io.EOF {
				s.log.Debugf("connection %s: read error: %v", info.Addr, err)
			}
			return
		}
		if len(argv) == 0 {
			continue
		}

		s.state.Registry().Touch(info.ID, argv[0])
		reply := s.dispatcher.Dispatch(argv)
		if _, err := conn.Write(reply); err != nil {
			s.log.Debugf("connection %s: write error: %v", info.Addr, err)
			return
		}
	}
}
