package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hongjun500/chat-relay/internal/bus/redisstream"
)

func TestFormat(t *testing.T) {
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "2024-05-01T12:00:00Z unicast   alice -> bob: hi",
		format(&redisstream.Event{Type: "unicast", When: when, From: "alice", To: "bob", Text: "hi"}))
	require.Equal(t, "2024-05-01T12:00:00Z broadcast alice: hello",
		format(&redisstream.Event{Type: "broadcast", When: when, From: "alice", Text: "hello"}))
	require.Equal(t, "2024-05-01T12:00:00Z notice    bob has left the chat",
		format(&redisstream.Event{Type: "notice", When: when, Text: "bob has left the chat"}))
}
