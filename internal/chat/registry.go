package chat

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/hongjun500/chat-relay/internal/observe"
)

// Handle is the write side of one live connection.
// Implementations must serialize concurrent WriteLine calls.
type Handle interface {
	WriteLine(line string) error
	Close() error
}

// Member is one registry entry.
type Member struct {
	Name   string
	Handle Handle
}

// Registry maps usernames to live connections; it is the only state shared
// between sessions. Every method is atomic on its own, none spans another.
type Registry struct {
	mu      sync.Mutex
	members map[string]Handle
}

func NewRegistry() *Registry {
	return &Registry{members: make(map[string]Handle)}
}

// Register inserts name if absent. The check and the insert happen under one lock.
func (r *Registry) Register(name string, h Handle) error {
	if name == "" {
		return ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.members[name]; taken {
		return ErrNameTaken
	}
	r.members[name] = h
	observe.SetOnline(len(r.members))
	return nil
}

// Unregister removes name if present. Removing an absent name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[name]; !ok {
		return
	}
	delete(r.members, name)
	observe.SetOnline(len(r.members))
}

// Release removes name only while it is still bound to h, so a late cleanup
// never evicts a newer session that reused the name. Reports whether it removed.
func (r *Registry) Release(name string, h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.members[name]
	if !ok || cur != h {
		return false
	}
	delete(r.members, name)
	observe.SetOnline(len(r.members))
	return true
}

func (r *Registry) Lookup(name string) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.members[name]
	if !ok {
		return nil, ErrNotFound
	}
	return h, nil
}

// Snapshot copies the registry, ordered by name. Callers iterate it without the lock.
func (r *Registry) Snapshot() []Member {
	r.mu.Lock()
	out := lo.MapToSlice(r.members, func(name string, h Handle) Member {
		return Member{Name: name, Handle: h}
	})
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names lists registered usernames in order.
func (r *Registry) Names() []string {
	return lo.Map(r.Snapshot(), func(m Member, _ int) string { return m.Name })
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Clear drops every entry without touching the connections.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.members)
	observe.SetOnline(0)
}
