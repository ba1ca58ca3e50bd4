package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hongjun500/chat-relay/internal/chat"
	"github.com/hongjun500/chat-relay/internal/observe"
)

const WebSocket = "ws"

// WSConn carries lines over WebSocket text messages. A message holding
// several newline separated lines yields them one by one.
type WSConn struct {
	conn    *websocket.Conn
	opt     Options
	pending []string

	wmu       sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func NewWSConn(c *websocket.Conn, opt Options) *WSConn {
	c.SetReadLimit(int64(opt.maxLine()))
	return &WSConn{conn: c, opt: opt}
}

// ReadLine returns the next line of the text messages received; binary
// messages are skipped. A normal close from the peer reads as io.EOF.
func (w *WSConn) ReadLine() (string, error) {
	if len(w.pending) > 0 {
		line := w.pending[0]
		w.pending = w.pending[1:]
		return line, nil
	}
	for {
		mt, data, err := w.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return "", io.EOF
			}
			if errors.Is(err, websocket.ErrReadLimit) {
				return "", ErrLineTooLong
			}
			return "", err
		}
		if mt != websocket.TextMessage {
			continue
		}
		lines := splitLines(strings.ToValidUTF8(string(data), "\uFFFD"))
		w.pending = lines[1:]
		return lines[0], nil
	}
}

// splitLines splits text on '\n' the way the TCP reader does: a trailing
// terminator does not start a new line and a trailing '\r' is dropped.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func (w *WSConn) WriteLine(s string) error {
	if w.closed.Load() {
		return ErrConnClosed
	}
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if w.opt.WriteTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.opt.WriteTimeout))
	}
	return w.conn.WriteMessage(websocket.TextMessage, []byte(s))
}

// CloseWrite sends a close frame, the WebSocket counterpart of a half-close.
func (w *WSConn) CloseWrite() error {
	if w.closed.Load() {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func (w *WSConn) Close() error {
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		w.closeErr = w.conn.Close()
	})
	return w.closeErr
}

func (w *WSConn) RemoteAddr() string {
	return w.conn.RemoteAddr().String()
}

// WebSocketServer exposes the relay over WebSocket; clients share the TCP registry.
type WebSocketServer struct {
	Path string // WebSocket endpoint path, defaults to "/ws"

	relay    *chat.Relay
	opt      Options
	log      *zap.Logger
	upgrader websocket.Upgrader
	server   *http.Server
}

func NewWebSocketServer(addr string, relay *chat.Relay, opt Options, log *zap.Logger) *WebSocketServer {
	if log == nil {
		log = zap.NewNop()
	}
	ws := &WebSocketServer{
		Path:  "/ws",
		relay: relay,
		opt:   opt,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	ws.server = &http.Server{Addr: addr}
	return ws
}

func (ws *WebSocketServer) Name() string { return WebSocket }

func (ws *WebSocketServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ws.Path, ws.handleConnection)
	return mux
}

func (ws *WebSocketServer) ListenAndServe() error {
	if ws.Path == "" {
		ws.Path = "/ws"
	}
	ws.server.Handler = ws.Handler()
	ws.log.Sugar().Infow("websocket_listen", "addr", ws.server.Addr, "path", ws.Path)
	err := ws.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting upgrades. Upgraded sessions are closed by the relay.
func (ws *WebSocketServer) Shutdown(ctx context.Context) error {
	return ws.server.Shutdown(ctx)
}

func (ws *WebSocketServer) handleConnection(w http.ResponseWriter, r *http.Request) {
	if ws.relay.Closing() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.log.Sugar().Warnw("ws_upgrade_error", "remote", r.RemoteAddr, "err", err)
		return
	}
	observe.IncSession(WebSocket)
	ws.relay.Serve(NewWSConn(conn, ws.opt))
}
