package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, names ...string) (*Router, map[string]*recorder) {
	t.Helper()
	reg := NewRegistry()
	handles := make(map[string]*recorder, len(names))
	for _, name := range names {
		h := &recorder{}
		require.NoError(t, reg.Register(name, h))
		handles[name] = h
	}
	return NewRouter(reg, nil, nil), handles
}

func TestRouter_BroadcastExcludesSender(t *testing.T) {
	router, handles := newTestRouter(t, "alice", "bob", "carol")

	n := router.Broadcast(NewNotice("bob has joined the chat"), "bob")

	require.Equal(t, 2, n)
	require.Equal(t, []string{"[notice] bob has joined the chat"}, handles["alice"].Lines())
	require.Equal(t, []string{"[notice] bob has joined the chat"}, handles["carol"].Lines())
	require.Empty(t, handles["bob"].Lines())
}

func TestRouter_BroadcastExcludeInactiveReachesAll(t *testing.T) {
	router, handles := newTestRouter(t, "alice", "bob")

	n := router.Broadcast(NewBroadcast("alice", "hello"), "zed")

	require.Equal(t, 2, n)
	for _, h := range handles {
		require.Equal(t, []string{"[all][alice] hello"}, h.Lines())
	}
}

func TestRouter_BroadcastIsolatesFailedRecipient(t *testing.T) {
	router, handles := newTestRouter(t, "alice", "bob", "carol", "dave")
	handles["bob"].fail = true

	var n int
	require.NotPanics(t, func() { n = router.Broadcast(NewBroadcast("alice", "hi"), "alice") })

	require.Equal(t, 2, n)
	require.Equal(t, []string{"[all][alice] hi"}, handles["carol"].Lines())
	require.Equal(t, []string{"[all][alice] hi"}, handles["dave"].Lines())
	require.Empty(t, handles["alice"].Lines())
}

func TestRouter_UnicastUnknownRecipient(t *testing.T) {
	router, handles := newTestRouter(t, "alice", "carol")
	sender := Member{Name: "alice", Handle: handles["alice"]}

	err := router.Unicast(sender, "bob", "hi there")

	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, []string{"[error] user 'bob' not found"}, handles["alice"].Lines())
	require.Empty(t, handles["carol"].Lines())
}

func TestRouter_UnicastDeliversAndEchoes(t *testing.T) {
	router, handles := newTestRouter(t, "alice", "bob", "carol")
	sender := Member{Name: "alice", Handle: handles["alice"]}

	require.NoError(t, router.Unicast(sender, "bob", "hi there"))

	require.Equal(t, []string{"[pm][from alice] hi there"}, handles["bob"].Lines())
	require.Equal(t, []string{"[pm][to bob] hi there"}, handles["alice"].Lines())
	require.Empty(t, handles["carol"].Lines())
}

func TestRouter_UnicastToDepartedRecipientIsSilent(t *testing.T) {
	router, handles := newTestRouter(t, "alice", "bob")
	handles["bob"].fail = true
	sender := Member{Name: "alice", Handle: handles["alice"]}

	require.NoError(t, router.Unicast(sender, "bob", "still there?"))
	require.Equal(t, []string{"[pm][to bob] still there?"}, handles["alice"].Lines())
}

func TestRouter_MirrorSeesRoutedMessagesInOrder(t *testing.T) {
	reg := NewRegistry()
	a, b := &recorder{}, &recorder{}
	require.NoError(t, reg.Register("alice", a))
	require.NoError(t, reg.Register("bob", b))

	var mu sync.Mutex
	var seen []string
	router := NewRouter(reg, mirrorFunc(func(m *Message) {
		mu.Lock()
		seen = append(seen, string(m.Kind)+":"+m.Body)
		mu.Unlock()
	}), nil)

	router.Broadcast(NewBroadcast("alice", "one"), "")
	require.NoError(t, router.Unicast(Member{Name: "alice", Handle: a}, "bob", "two"))
	require.Error(t, router.Unicast(Member{Name: "alice", Handle: a}, "zed", "lost"))
	router.Broadcast(NewNotice("three"), "")

	require.Equal(t, []string{"broadcast:one", "unicast:two", "notice:three"}, seen)
}
