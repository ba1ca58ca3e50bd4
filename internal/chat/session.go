package chat

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Conn is the line transport of one client.
type Conn interface {
	Handle
	// ReadLine blocks for the next line without its terminator. io.EOF marks an orderly close.
	ReadLine() (string, error)
	// CloseWrite half-closes the connection where the transport supports it.
	CloseWrite() error
	RemoteAddr() string
}

// State is the lifecycle position of a Session. It only moves forward.
type State int32

const (
	StateConnecting State = iota
	StateRegistering
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateRegistering:
		return "registering"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the server side of one client. Only its own handler goroutine
// mutates it; State may be read from anywhere.
type Session struct {
	ID   string
	Name string

	conn   Conn
	state  atomic.Int32
	joined bool
}

func newSession(conn Conn) *Session {
	return &Session{ID: uuid.NewString(), conn: conn}
}

func (s *Session) State() State { return State(s.state.Load()) }

// advance moves the session to next; backwards moves are ignored.
func (s *Session) advance(next State) {
	for {
		cur := s.state.Load()
		if State(cur) >= next {
			return
		}
		if s.state.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

func (s *Session) member() Member { return Member{Name: s.Name, Handle: s.conn} }
