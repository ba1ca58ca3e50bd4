package chat

import (
	"fmt"
	"time"
)

// Kind classifies a routed message.
type Kind string

const (
	KindBroadcast Kind = "broadcast"
	KindUnicast   Kind = "unicast"
	KindNotice    Kind = "notice"
)

// Wire texts shared by the relay and its clients.
const (
	QuitToken = "/quit"

	Greeting       = "welcome to the chat server. please enter a unique username:"
	GoodbyeLine    = "[ok] goodbye"
	ShutdownNotice = "[notice] server is shutting down"
	ErrorMarker    = "[error]"

	emptyNameLine        = ErrorMarker + " empty username not allowed"
	nameTakenLine        = ErrorMarker + " username already taken, try again later"
	directFormatLine     = ErrorMarker + " private message format: @username your message"
	missingRecipientLine = ErrorMarker + " missing recipient username after '@'"
)

// Message is a transient routed value; it is never stored.
type Message struct {
	Kind      Kind
	Sender    string // empty for notices
	Recipient string // set for unicasts only
	Body      string
	When      time.Time
}

func NewBroadcast(sender, body string) *Message {
	return &Message{Kind: KindBroadcast, Sender: sender, Body: body, When: time.Now()}
}

func NewDirect(sender, recipient, body string) *Message {
	return &Message{Kind: KindUnicast, Sender: sender, Recipient: recipient, Body: body, When: time.Now()}
}

func NewNotice(body string) *Message {
	return &Message{Kind: KindNotice, Body: body, When: time.Now()}
}

// Line renders the message as delivered to its recipients.
func (m *Message) Line() string {
	switch m.Kind {
	case KindBroadcast:
		return "[all][" + m.Sender + "] " + m.Body
	case KindUnicast:
		return "[pm][from " + m.Sender + "] " + m.Body
	default:
		return "[notice] " + m.Body
	}
}

// EchoLine renders the confirmation a unicast sender gets back.
func (m *Message) EchoLine() string {
	return "[pm][to " + m.Recipient + "] " + m.Body
}

func joinedLine(name string) string {
	return fmt.Sprintf("[ok] joined as '%s'. type '%s' to leave. use '@user message' for private dm.", name, QuitToken)
}

func joinNotice(name string) *Message { return NewNotice(name + " has joined the chat") }

func leftNotice(name string) *Message { return NewNotice(name + " has left the chat") }

func notFoundLine(name string) string {
	return fmt.Sprintf("%s user '%s' not found", ErrorMarker, name)
}

func exceptionLine(v any) string {
	return fmt.Sprintf("%s server exception: %v", ErrorMarker, v)
}
