package chat

import "errors"

var (
	// ErrEmptyName is returned when a connecting client offers a blank username.
	ErrEmptyName = errors.New("chat: empty username")
	// ErrNameTaken is returned when the requested username is already registered.
	ErrNameTaken = errors.New("chat: username already taken")
	// ErrNotFound is returned by lookups and unicasts for a name that is not registered.
	ErrNotFound = errors.New("chat: user not found")
	// ErrMalformedDirect marks an "@" line without a body.
	ErrMalformedDirect = errors.New("chat: malformed private message")
	// ErrMissingRecipient marks an "@" line without a recipient name.
	ErrMissingRecipient = errors.New("chat: missing recipient")
	// ErrRelayClosed is returned to sessions that try to register during shutdown.
	ErrRelayClosed = errors.New("chat: relay is shutting down")
)
