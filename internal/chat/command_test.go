package chat

import "testing"

func TestParseLine(t *testing.T) {
	cases := []struct {
		raw  string
		want Command
	}{
		{"", Command{Kind: CommandIgnore}},
		{"   \t ", Command{Kind: CommandIgnore}},
		{"/quit", Command{Kind: CommandQuit}},
		{"  /quit \r", Command{Kind: CommandQuit}},
		{"/quitting", Command{Kind: CommandBroadcast, Body: "/quitting"}},
		{"hello world", Command{Kind: CommandBroadcast, Body: "hello world"}},
		{"  padded  ", Command{Kind: CommandBroadcast, Body: "padded"}},
		{"@bob hi there", Command{Kind: CommandDirect, Recipient: "bob", Body: "hi there"}},
		{"@bob    spaced   out", Command{Kind: CommandDirect, Recipient: "bob", Body: "spaced   out"}},
		{"@bob\thi", Command{Kind: CommandDirect, Recipient: "bob", Body: "hi"}},
		{"@bob", Command{Kind: CommandInvalid, Err: ErrMalformedDirect}},
		{"@bob   ", Command{Kind: CommandInvalid, Err: ErrMalformedDirect}},
		{"@ hi", Command{Kind: CommandInvalid, Err: ErrMissingRecipient}},
		{"@", Command{Kind: CommandInvalid, Err: ErrMalformedDirect}},
	}
	for _, c := range cases {
		got := ParseLine(c.raw)
		if got != c.want {
			t.Errorf("ParseLine(%q) = %+v, want %+v", c.raw, got, c.want)
		}
	}
}

func TestMessageLines(t *testing.T) {
	m := NewDirect("alice", "bob", "hi")
	if m.Line() != "[pm][from alice] hi" || m.EchoLine() != "[pm][to bob] hi" {
		t.Fatalf("unexpected direct lines %q / %q", m.Line(), m.EchoLine())
	}
	if l := NewBroadcast("alice", "hello").Line(); l != "[all][alice] hello" {
		t.Fatalf("unexpected broadcast line %q", l)
	}
	if l := leftNotice("bob").Line(); l != "[notice] bob has left the chat" {
		t.Fatalf("unexpected notice line %q", l)
	}
}
