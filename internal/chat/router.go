package chat

import (
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hongjun500/chat-relay/internal/observe"
)

// Mirror receives every routed message after delivery. Publish must not block.
type Mirror interface {
	Publish(m *Message)
}

// Router delivers messages to registry members. Deliveries are best effort:
// a failed write is logged, counted and dropped, never returned to the caller.
type Router struct {
	registry *Registry
	mirror   Mirror
	log      *zap.Logger
}

func NewRouter(registry *Registry, mirror Mirror, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{registry: registry, mirror: mirror, log: log}
}

// Broadcast writes m to every member except exclude ("" excludes nobody) and
// returns how many writes succeeded. The registry lock is not held while writing.
func (r *Router) Broadcast(m *Message, exclude string) int {
	line := m.Line()
	recipients := lo.Filter(r.registry.Snapshot(), func(member Member, _ int) bool {
		return member.Name != exclude
	})
	delivered := 0
	for _, member := range recipients {
		if r.deliver(member, line) {
			delivered++
		}
	}
	observe.IncMessage(string(m.Kind))
	r.publish(m)
	return delivered
}

// Unicast delivers body from sender to recipient and echoes a confirmation to
// sender. An unknown recipient gets the sender a single error line and nothing else.
func (r *Router) Unicast(sender Member, recipient, body string) error {
	h, err := r.registry.Lookup(recipient)
	if err != nil {
		r.deliver(sender, notFoundLine(recipient))
		observe.IncProtocolError("not_found")
		return fmt.Errorf("unicast to %q: %w", recipient, err)
	}
	m := NewDirect(sender.Name, recipient, body)
	r.deliver(Member{Name: recipient, Handle: h}, m.Line())
	r.deliver(sender, m.EchoLine())
	observe.IncMessage(string(m.Kind))
	r.publish(m)
	return nil
}

// Reply writes one line to a single member, bypassing the registry.
func (r *Router) Reply(to Member, line string) bool {
	return r.deliver(to, line)
}

func (r *Router) deliver(to Member, line string) bool {
	if to.Handle == nil {
		return false
	}
	if err := to.Handle.WriteLine(line); err != nil {
		r.log.Debug("delivery_failed", zap.String("to", to.Name), zap.Error(err))
		observe.IncDropped()
		return false
	}
	return true
}

func (r *Router) publish(m *Message) {
	if r.mirror != nil {
		r.mirror.Publish(m)
	}
}
