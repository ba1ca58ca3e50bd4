package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hongjun500/chat-relay/internal/chat"
	"github.com/hongjun500/chat-relay/internal/observe"
)

const Tcp = "tcp"

// TCPServer accepts stream connections and runs one relay session per connection.
type TCPServer struct {
	addr  string
	relay *chat.Relay
	opt   Options
	log   *zap.Logger

	mu       sync.Mutex
	ln       net.Listener
	closing  atomic.Bool
	shutdown sync.Once
}

func NewTCPServer(addr string, relay *chat.Relay, opt Options, log *zap.Logger) *TCPServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &TCPServer{addr: addr, relay: relay, opt: opt, log: log}
}

func (s *TCPServer) Name() string { return Tcp }

// Listen binds the configured address. A failure here is fatal for the server.
func (s *TCPServer) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.Sugar().Infow("tcp_listen", "addr", ln.Addr().String())
	return nil
}

// Addr is the bound address, nil before Listen.
func (s *TCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve runs the accept loop until Shutdown. Sessions run on their own goroutines.
func (s *TCPServer) Serve() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("transport: Serve called before Listen")
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Sugar().Warnw("tcp_accept_error", "err", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if s.closing.Load() {
			_ = conn.Close()
			continue
		}
		observe.IncSession(Tcp)
		go s.relay.Serve(NewTCPConn(conn, s.opt))
	}
}

// ListenAndServe binds, serves, and shuts down when ctx is done.
func (s *TCPServer) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	go func() { <-ctx.Done(); _ = s.Shutdown() }()
	return s.Serve()
}

// Shutdown stops handing out connections, notifies and closes every
// registered client, clears the registry and finally closes the listener.
// It does not wait for session goroutines.
func (s *TCPServer) Shutdown() error {
	var err error
	s.shutdown.Do(func() {
		s.closing.Store(true)
		n := s.relay.Shutdown()
		s.mu.Lock()
		ln := s.ln
		s.mu.Unlock()
		if ln != nil {
			err = ln.Close()
		}
		s.log.Sugar().Infow("tcp_shutdown", "notified", n)
	})
	return err
}
