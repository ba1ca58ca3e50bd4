package chat

import (
	"errors"
	"io"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hongjun500/chat-relay/internal/observe"
	"github.com/hongjun500/chat-relay/pkg/logger"
)

// Relay runs the per-connection session protocol against one shared Registry.
type Relay struct {
	registry *Registry
	router   *Router
	log      *zap.Logger
	closing  atomic.Bool

	// OnSession, when set, is called with every new session before the handshake.
	OnSession func(*Session)
}

type Option func(*relayOptions)

type relayOptions struct {
	log    *zap.Logger
	mirror Mirror
}

func WithLogger(l *zap.Logger) Option {
	return func(o *relayOptions) {
		if l != nil {
			o.log = l
		}
	}
}

func WithMirror(m Mirror) Option {
	return func(o *relayOptions) { o.mirror = m }
}

func NewRelay(opts ...Option) *Relay {
	o := relayOptions{log: logger.L()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	reg := NewRegistry()
	return &Relay{
		registry: reg,
		router:   NewRouter(reg, o.mirror, o.log),
		log:      o.log,
	}
}

func (r *Relay) Registry() *Registry { return r.registry }

// Serve runs one session to completion: handshake, the read loop, then
// cleanup. It returns once the session is Closed.
func (r *Relay) Serve(conn Conn) {
	s := newSession(conn)
	log := r.log.With(zap.String("session", s.ID), zap.String("remote", conn.RemoteAddr()))
	if r.OnSession != nil {
		r.OnSession(s)
	}
	defer r.close(s, log)
	defer r.recoverSession(s, log)

	if r.closing.Load() {
		return
	}
	s.advance(StateRegistering)
	if err := r.register(s); err != nil {
		log.Debug("session_register_failed", zap.Error(err))
		return
	}
	log.Info("session_registered", zap.String("name", s.Name))

	for {
		line, err := conn.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug("session_eof", zap.String("name", s.Name))
			} else {
				log.Debug("session_read_error", zap.String("name", s.Name), zap.Error(err))
			}
			return
		}
		if !r.handle(s, line, log) {
			return
		}
	}
}

func (r *Relay) register(s *Session) error {
	if err := s.conn.WriteLine(Greeting); err != nil {
		return err
	}
	raw, err := s.conn.ReadLine()
	if err != nil {
		return err
	}
	name := strings.TrimSpace(raw)
	if name == "" {
		_ = s.conn.WriteLine(emptyNameLine)
		observe.IncRejected("empty")
		return ErrEmptyName
	}
	if err := r.registry.Register(name, s.conn); err != nil {
		if errors.Is(err, ErrNameTaken) {
			_ = s.conn.WriteLine(nameTakenLine)
			observe.IncRejected("taken")
		}
		return err
	}
	if r.closing.Load() {
		r.registry.Release(name, s.conn)
		observe.IncRejected("closing")
		return ErrRelayClosed
	}
	s.Name = name
	s.joined = true
	s.advance(StateActive)
	_ = s.conn.WriteLine(joinedLine(name))
	r.router.Broadcast(joinNotice(name), name)
	return nil
}

// recoverSession turns a panic on the session goroutine into a reply to that
// client; the deferred close then ends the session as usual.
func (r *Relay) recoverSession(s *Session, log *zap.Logger) {
	if v := recover(); v != nil {
		log.Error("session_panic", zap.String("name", s.Name), zap.Any("panic", v), zap.Stack("stack"))
		observe.IncProtocolError("panic")
		_ = s.conn.WriteLine(exceptionLine(v))
	}
}

// handle processes one line of an Active session and reports whether the
// session stays Active.
func (r *Relay) handle(s *Session, line string, log *zap.Logger) bool {
	cmd := ParseLine(line)
	switch cmd.Kind {
	case CommandIgnore:
	case CommandQuit:
		_ = s.conn.WriteLine(GoodbyeLine)
		log.Debug("session_quit", zap.String("name", s.Name))
		return false
	case CommandInvalid:
		reply := directFormatLine
		reason := "format"
		if errors.Is(cmd.Err, ErrMissingRecipient) {
			reply, reason = missingRecipientLine, "recipient"
		}
		r.router.Reply(s.member(), reply)
		observe.IncProtocolError(reason)
	case CommandDirect:
		if err := r.router.Unicast(s.member(), cmd.Recipient, cmd.Body); err != nil {
			log.Debug("unicast_failed", zap.String("name", s.Name), zap.Error(err))
		}
	case CommandBroadcast:
		r.router.Broadcast(NewBroadcast(s.Name, cmd.Body), "")
	}
	return true
}

func (r *Relay) close(s *Session, log *zap.Logger) {
	s.advance(StateClosing)
	if s.joined {
		r.registry.Release(s.Name, s.conn)
	}
	_ = s.conn.CloseWrite()
	_ = s.conn.Close()
	s.advance(StateClosed)
	if s.joined {
		func() {
			defer func() {
				if v := recover(); v != nil {
					log.Error("left_notice_panic", zap.String("name", s.Name), zap.Any("panic", v))
				}
			}()
			r.router.Broadcast(leftNotice(s.Name), "")
		}()
	}
	log.Info("session_closed", zap.String("name", s.Name))
}

// Shutdown notifies and closes every registered connection, then clears the
// registry. It does not wait for session goroutines; new sessions are refused
// from here on. It returns the number of connections notified.
func (r *Relay) Shutdown() int {
	r.closing.Store(true)
	members := r.registry.Snapshot()
	for _, m := range members {
		r.router.Reply(m, ShutdownNotice)
	}
	for _, m := range members {
		if hc, ok := m.Handle.(interface{ CloseWrite() error }); ok {
			_ = hc.CloseWrite()
		}
		_ = m.Handle.Close()
	}
	r.registry.Clear()
	r.log.Info("relay_shutdown", zap.Int("notified", len(members)))
	return len(members)
}

// Closing reports whether Shutdown has started.
func (r *Relay) Closing() bool { return r.closing.Load() }
