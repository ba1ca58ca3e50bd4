package transport

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// TCPConn reads and writes newline terminated UTF-8 lines over a stream connection.
type TCPConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
	opt     Options

	wmu       sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func NewTCPConn(c net.Conn, opt Options) *TCPConn {
	sc := bufio.NewScanner(c)
	limit := opt.maxLine()
	// the scanner's limit is the larger of limit and the initial capacity
	sc.Buffer(make([]byte, 0, min(4096, limit)), limit)
	return &TCPConn{conn: c, scanner: sc, opt: opt}
}

// ReadLine returns the next line without its terminator; invalid UTF-8 is
// replaced. It returns io.EOF once the peer has closed its side.
func (t *TCPConn) ReadLine() (string, error) {
	if !t.scanner.Scan() {
		err := t.scanner.Err()
		switch {
		case err == nil:
			return "", io.EOF
		case errors.Is(err, bufio.ErrTooLong):
			return "", ErrLineTooLong
		default:
			return "", err
		}
	}
	line := strings.TrimSuffix(t.scanner.Text(), "\r")
	return strings.ToValidUTF8(line, "\uFFFD"), nil
}

// WriteLine writes s and a newline in one call. Safe for concurrent use.
func (t *TCPConn) WriteLine(s string) error {
	if t.closed.Load() {
		return ErrConnClosed
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.opt.WriteTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.opt.WriteTimeout))
	}
	_, err := io.WriteString(t.conn, s+"\n")
	return err
}

// CloseWrite half-closes the connection when the underlying conn supports it.
func (t *TCPConn) CloseWrite() error {
	if cw, ok := t.conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}

func (t *TCPConn) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

func (t *TCPConn) RemoteAddr() string {
	if a := t.conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}
