package chat

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

// recorder is a Handle that keeps every line written to it.
type recorder struct {
	mu     sync.Mutex
	lines  []string
	fail   bool
	closed bool
}

func (r *recorder) WriteLine(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail || r.closed {
		return errBrokenPipe
	}
	r.lines = append(r.lines, line)
	return nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func (r *recorder) IsClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// fakeConn feeds lines to a session through a channel; closing in is an orderly EOF.
type fakeConn struct {
	recorder
	in        chan string
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan string, 16), done: make(chan struct{})}
}

func (c *fakeConn) ReadLine() (string, error) {
	select {
	case line, ok := <-c.in:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	case <-c.done:
		return "", errors.New("use of closed connection")
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.recorder.Close()
}

func (c *fakeConn) CloseWrite() error  { return nil }
func (c *fakeConn) RemoteAddr() string { return "pipe" }

func (c *fakeConn) send(line string) { c.in <- line }

func (c *fakeConn) waitLine(t *testing.T, substr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, l := range c.Lines() {
			if strings.Contains(l, substr) {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond, "no line containing %q, got %q", substr, c.Lines())
}

func (c *fakeConn) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("connection was not closed")
	}
}

// mirrorFunc adapts a function to Mirror.
type mirrorFunc func(m *Message)

func (f mirrorFunc) Publish(m *Message) { f(m) }
