package chat

import (
	"strings"
	"unicode"
)

// CommandKind is the classification of one steady state input line.
type CommandKind int

const (
	CommandIgnore CommandKind = iota // blank line
	CommandQuit
	CommandDirect
	CommandBroadcast
	CommandInvalid // malformed "@" line, Err says why
)

type Command struct {
	Kind      CommandKind
	Recipient string
	Body      string
	Err       error
}

// ParseLine classifies a raw input line. Surrounding whitespace is ignored;
// "@name body" splits at the first whitespace run.
func ParseLine(raw string) Command {
	line := strings.TrimSpace(raw)
	switch {
	case line == "":
		return Command{Kind: CommandIgnore}
	case line == QuitToken:
		return Command{Kind: CommandQuit}
	case strings.HasPrefix(line, "@"):
		return parseDirect(line)
	default:
		return Command{Kind: CommandBroadcast, Body: line}
	}
}

func parseDirect(line string) Command {
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return Command{Kind: CommandInvalid, Err: ErrMalformedDirect}
	}
	recipient := line[1:i]
	if recipient == "" {
		return Command{Kind: CommandInvalid, Err: ErrMissingRecipient}
	}
	return Command{
		Kind:      CommandDirect,
		Recipient: recipient,
		Body:      strings.TrimSpace(line[i:]),
	}
}
