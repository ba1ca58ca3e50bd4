package redisstream

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hongjun500/chat-relay/internal/chat"
	"github.com/hongjun500/chat-relay/internal/observe"
)

// Publisher is the write side of Bus.
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

// Mirror feeds routed messages to a Publisher from a bounded queue.
// A single goroutine drains the queue so stream order follows routing order.
// When the queue is full the event is dropped and counted.
type Mirror struct {
	pub     Publisher
	queue   chan *Event
	log     *zap.Logger
	timeout time.Duration
}

func NewMirror(pub Publisher, size int, log *zap.Logger) *Mirror {
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Mirror{pub: pub, queue: make(chan *Event, size), log: log, timeout: 2 * time.Second}
}

var _ chat.Mirror = (*Mirror)(nil)

// Publish never blocks the caller.
func (m *Mirror) Publish(msg *chat.Message) {
	select {
	case m.queue <- EventOf(msg):
	default:
		observe.IncMirrorDropped()
		m.log.Debug("mirror_dropped", zap.String("kind", string(msg.Kind)))
	}
}

// Run publishes queued events until ctx is done, then flushes what is left.
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case e := <-m.queue:
			m.send(ctx, e)
		case <-ctx.Done():
			m.flush()
			return
		}
	}
}

func (m *Mirror) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	for {
		select {
		case e := <-m.queue:
			m.send(ctx, e)
		default:
			return
		}
	}
}

func (m *Mirror) send(ctx context.Context, e *Event) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.pub.Publish(ctx, e); err != nil {
		m.log.Warn("mirror_publish_failed", zap.String("type", e.Type), zap.Error(err))
	}
}
