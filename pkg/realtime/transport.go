package realtime

import "context"

// Conn is an open push connection.
type Conn interface {
	Send(ctx context.Context, msg Message) error
	// Receive blocks until the next message. It returns an error wrapping
	// ErrServerClosed when the server ended the connection normally and an
	// error wrapping ErrMalformedMessage for a frame that could not be
	// decoded; the connection stays usable after the latter.
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// Dialer opens connections of one transport.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
	Name() string
}
